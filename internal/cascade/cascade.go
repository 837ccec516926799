package cascade

import (
	"context"
	"errors"
	"fmt"

	"pairlink/internal/auth"
	"pairlink/internal/logger"
	"pairlink/internal/store"
	"pairlink/internal/transport"
)

// ErrDenied wraps a hub-side denial. A denial is a trust decision made
// by a human, not a transport fluke: the cascade stops instead of
// re-prompting on the next candidate.
var ErrDenied = errors.New("authentication denied")

// ErrAllEndpointsFailed reports that every candidate was exhausted
// without reaching an authenticated connection.
var ErrAllEndpointsFailed = errors.New("all endpoints failed")

// ErrPairingTimeout reports an approval that never arrived. Not
// auto-retried, to avoid spamming pairing codes.
var ErrPairingTimeout = errors.New("pairing timed out")

// Endpoint is one transport candidate for reaching the hub.
type Endpoint struct {
	Name string
	URL  string
}

// Authenticator drives one open connection to a terminal outcome.
type Authenticator interface {
	Run(ctx context.Context, conn transport.Conn) auth.Outcome
}

// Cascade tries candidates in order until one authenticates. Sessions
// are keyed by hub identity, so a session paired over one endpoint is
// found and reused when a later attempt lands on another.
type Cascade struct {
	Endpoints []Endpoint
	Auth      Authenticator
	Log       *logger.Logger

	// Dial opens one candidate; nil means the websocket transport.
	Dial func(ctx context.Context, url string) (transport.Conn, error)
}

// Connect walks the candidates and returns the first authenticated
// connection along with its session record. Denials and pairing
// timeouts are terminal; transport and protocol failures advance to
// the next candidate.
func (c *Cascade) Connect(ctx context.Context) (transport.Conn, store.Record, error) {
	if len(c.Endpoints) == 0 {
		return nil, store.Record{}, fmt.Errorf("no endpoints configured")
	}

	dial := c.Dial
	if dial == nil {
		dial = func(ctx context.Context, url string) (transport.Conn, error) {
			return transport.Dial(ctx, url, c.Log)
		}
	}

	for _, ep := range c.Endpoints {
		if err := ctx.Err(); err != nil {
			return nil, store.Record{}, err
		}

		conn, err := dial(ctx, ep.URL)
		if err != nil {
			c.logEvent(fmt.Sprintf("endpoint %s unreachable: %v", ep.Name, err), ep.URL)
			continue
		}

		outcome := c.Auth.Run(ctx, conn)
		switch outcome.Kind {
		case auth.KindAuthenticated:
			c.logEvent("authenticated via "+ep.Name, ep.URL)
			return conn, outcome.Record, nil
		case auth.KindDenied:
			conn.Close()
			return nil, store.Record{}, fmt.Errorf("%w: %s", ErrDenied, outcome.Reason)
		case auth.KindTimedOut:
			conn.Close()
			if ctx.Err() != nil {
				return nil, store.Record{}, ctx.Err()
			}
			return nil, store.Record{}, ErrPairingTimeout
		default:
			// Protocol errors read like transport failures for cascade
			// purposes, but are logged distinctly: they can indicate a
			// version mismatch rather than a network problem.
			c.logEvent(fmt.Sprintf("endpoint %s failed: %s (%s)", ep.Name, outcome.Kind, outcome.Reason), ep.URL)
			conn.Close()
		}
	}

	return nil, store.Record{}, ErrAllEndpointsFailed
}

func (c *Cascade) logEvent(msg, endpoint string) {
	if c.Log != nil {
		c.Log.LogEvent(msg, endpoint)
	}
}
