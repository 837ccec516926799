package auth

import "pairlink/internal/store"

// Kind classifies the terminal result of one authentication attempt
// over one connection.
type Kind int

const (
	KindAuthenticated Kind = iota
	KindDenied
	KindExpired
	KindTimedOut
	KindProtocolError
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindDenied:
		return "denied"
	case KindExpired:
		return "expired"
	case KindTimedOut:
		return "timed_out"
	case KindProtocolError:
		return "protocol_error"
	}
	return "unknown"
}

// Outcome is consumed immediately by the endpoint cascade; it is never
// persisted. Record is set only when Kind is KindAuthenticated.
type Outcome struct {
	Kind   Kind
	Record store.Record
	Reason string
}

func Authenticated(rec store.Record) Outcome {
	return Outcome{Kind: KindAuthenticated, Record: rec}
}

func Denied(reason string) Outcome {
	return Outcome{Kind: KindDenied, Reason: reason}
}

func Expired() Outcome {
	return Outcome{Kind: KindExpired}
}

func TimedOut() Outcome {
	return Outcome{Kind: KindTimedOut}
}

func ProtocolError(reason string) Outcome {
	return Outcome{Kind: KindProtocolError, Reason: reason}
}
