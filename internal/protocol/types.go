package protocol

// Message is the single JSON envelope exchanged with a hub. The status
// field selects the shape; unused fields stay empty and are omitted on
// the wire.
type Message struct {
	Status      string `json:"status"`
	HubIdentity string `json:"hub_identity,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Token       string `json:"token,omitempty"`
	PairingCode string `json:"pairing_code,omitempty"`
	Hostname    string `json:"hostname,omitempty"`
	Result      string `json:"result,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Status values
const (
	StatusAuthRequired  = "auth_required"
	StatusAuth          = "auth"
	StatusAuthenticated = "authenticated"
	StatusError         = "error"
	StatusHeartbeat     = "heartbeat"
	StatusPong          = "pong"
)

// Result values on pairing replies
const ResultGranted = "granted"

// Error reasons the hub reports
const (
	ReasonExpired = "expired"
	ReasonDenied  = "denied"
	ReasonUnknown = "unknown_session"
)

func SessionAuth(sessionID string) Message {
	return Message{Status: StatusAuth, SessionID: sessionID}
}

func PairingRequest(code, hostname string) Message {
	return Message{Status: StatusAuth, PairingCode: code, Hostname: hostname}
}

func Heartbeat(timestamp string) Message {
	return Message{Status: StatusHeartbeat, Timestamp: timestamp}
}

// IsChallenge reports whether m is the hub's identity-bearing challenge.
func (m Message) IsChallenge() bool {
	return m.Status == StatusAuthRequired && m.HubIdentity != ""
}

// IsGrant reports whether m carries a freshly minted session.
func (m Message) IsGrant() bool {
	return m.Status == StatusAuth && m.Result == ResultGranted &&
		m.SessionID != "" && m.Token != ""
}

// IsSessionOK reports whether m confirms a presented session.
func (m Message) IsSessionOK() bool {
	return m.Status == StatusAuthenticated
}

// IsAuthError reports whether m is a terminal auth failure from the hub.
func (m Message) IsAuthError() bool {
	return m.Status == StatusError
}

// StaleSession reports whether the error means the presented session is
// merely stale or unknown, which the client recovers from by pairing.
func (m Message) StaleSession() bool {
	return m.Status == StatusError &&
		(m.Reason == ReasonExpired || m.Reason == ReasonUnknown)
}
