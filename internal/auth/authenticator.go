package auth

import (
	"context"
	"time"

	"pairlink/internal/constants"
	"pairlink/internal/protocol"
	"pairlink/internal/store"
	"pairlink/internal/transport"
)

// Authenticator runs the per-connection authentication state machine:
// wait for the hub's identity-bearing challenge, try the stored session
// for that identity, and fall back to pairing when the hub rejects it
// as stale. The hub is authoritative on session validity; the local
// expiry check only decides what the client bothers to present.
type Authenticator struct {
	Store      *store.FileStore
	Negotiator *Negotiator

	// ChallengeTimeout and VerdictTimeout bound the short waits; zero
	// means the defaults (5s each).
	ChallengeTimeout time.Duration
	VerdictTimeout   time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Run drives one connection to a terminal outcome. On success the
// new or refreshed record has already been upserted into the store.
func (a *Authenticator) Run(ctx context.Context, conn transport.Conn) Outcome {
	challenge, outcome := a.awaitChallenge(ctx, conn)
	if outcome != nil {
		return *outcome
	}
	hubIdentity := challenge.HubIdentity

	if rec, ok := a.Store.Get(hubIdentity); ok {
		outcome := a.trySession(ctx, conn, rec)
		if outcome != nil {
			return *outcome
		}
		// Stale or unknown on the hub side: pair again.
	}

	result := a.Negotiator.Run(ctx, conn, hubIdentity)
	if result.Kind == KindAuthenticated {
		if err := a.Store.Upsert(result.Record); err != nil {
			// The session works for this connection even if it could
			// not be saved; next start will simply pair again.
			return result
		}
	}
	return result
}

func (a *Authenticator) awaitChallenge(ctx context.Context, conn transport.Conn) (protocol.Message, *Outcome) {
	timeout := a.ChallengeTimeout
	if timeout <= 0 {
		timeout = constants.ChallengeTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			out := TimedOut()
			return protocol.Message{}, &out
		case <-timer.C:
			out := ProtocolError("no challenge")
			return protocol.Message{}, &out
		case msg, ok := <-conn.Messages():
			if !ok {
				out := ProtocolError("connection closed before challenge")
				return protocol.Message{}, &out
			}
			if msg.IsChallenge() {
				return msg, nil
			}
			// The hub must challenge before anything else; drop strays.
		}
	}
}

// trySession presents the stored session and interprets the verdict.
// A nil return means fall through to pairing.
func (a *Authenticator) trySession(ctx context.Context, conn transport.Conn, rec store.Record) *Outcome {
	if err := conn.Send(protocol.SessionAuth(rec.SessionID)); err != nil {
		out := ProtocolError("failed to send session auth: " + err.Error())
		return &out
	}

	timeout := a.VerdictTimeout
	if timeout <= 0 {
		timeout = constants.VerdictTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			out := TimedOut()
			return &out
		case <-timer.C:
			out := ProtocolError("no session verdict")
			return &out
		case msg, ok := <-conn.Messages():
			if !ok {
				out := ProtocolError("connection closed awaiting verdict")
				return &out
			}
			switch {
			case msg.IsSessionOK():
				rec.Refresh(a.now())
				// The refreshed timestamp is lost if the write fails, but
				// the hub already confirmed the session; keep the
				// connection either way.
				_ = a.Store.Upsert(rec)
				out := Authenticated(rec)
				return &out
			case msg.StaleSession():
				return nil
			case msg.IsAuthError():
				// An explicit denial means the credential is untrusted,
				// not merely stale; do not auto-retry with pairing.
				out := Denied(msg.Reason)
				return &out
			default:
				// Ignore non-auth traffic until a terminal outcome.
			}
		}
	}
}

func (a *Authenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
