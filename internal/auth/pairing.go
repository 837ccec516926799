package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"pairlink/internal/constants"
	"pairlink/internal/protocol"
	"pairlink/internal/store"
	"pairlink/internal/transport"
)

// Negotiator runs one pairing exchange: generate a one-time code, show
// it to the human, send the pairing request, and wait for the hub-side
// approval. The code is single use and rejected by the hub after use or
// timeout; it is not a long-term secret.
type Negotiator struct {
	Hostname string

	// Display is called once with the generated code before the request
	// is sent, so the human knows what to approve on the hub side.
	Display func(code, hostname string)

	// Timeout bounds the approval wait. Zero means the default 5 minutes.
	Timeout time.Duration

	// Now is the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// GenerateCode draws an 8-digit numeric one-time code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pairing code: %w", err)
	}
	return fmt.Sprintf("%08d", n.Int64()+10_000_000), nil
}

// Run sends the pairing request on conn and blocks until the hub
// approves, denies, or the wait expires. hubIdentity is the identity
// from the challenge; the minted record is keyed by it, never by the
// pairing code. Cancellation via ctx reports TimedOut and sends nothing
// further.
func (n *Negotiator) Run(ctx context.Context, conn transport.Conn, hubIdentity string) Outcome {
	code, err := GenerateCode()
	if err != nil {
		return ProtocolError(err.Error())
	}

	hostname := n.Hostname
	if hostname == "" {
		hostname = "unknown"
	}

	if n.Display != nil {
		n.Display(code, hostname)
	}

	if err := conn.Send(protocol.PairingRequest(code, hostname)); err != nil {
		return ProtocolError(fmt.Sprintf("failed to send pairing request: %v", err))
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = constants.PairingTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return TimedOut()
		case <-timer.C:
			return TimedOut()
		case msg, ok := <-conn.Messages():
			if !ok {
				return ProtocolError("connection closed during pairing")
			}
			switch {
			case msg.IsGrant():
				now := time.Now()
				if n.Now != nil {
					now = n.Now()
				}
				rec := store.NewRecord(msg.SessionID, msg.Token, hubIdentity, hostname, now)
				return Authenticated(rec)
			case msg.IsAuthError() && msg.Reason == protocol.ReasonExpired:
				// The one-time code lapsed on the hub before anyone acted
				// on it. Unlike a denial this is not a trust decision, so
				// the cascade may still try further candidates.
				return Expired()
			case msg.IsAuthError():
				return Denied(msg.Reason)
			default:
				// Not part of the pairing exchange; keep waiting.
			}
		}
	}
}
