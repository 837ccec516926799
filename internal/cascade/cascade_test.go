package cascade

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairlink/internal/auth"
	"pairlink/internal/protocol"
	"pairlink/internal/store"
	"pairlink/internal/transport"
)

// scriptConn is a channel-backed transport.Conn whose hub side runs as
// a goroutine reading out and feeding in.
type scriptConn struct {
	in  chan protocol.Message
	out chan protocol.Message

	mu     sync.Mutex
	closed bool
}

func newScriptConn() *scriptConn {
	return &scriptConn{
		in:  make(chan protocol.Message, 16),
		out: make(chan protocol.Message, 16),
	}
}

func (s *scriptConn) Send(msg protocol.Message) error {
	s.out <- msg
	return nil
}

func (s *scriptConn) Messages() <-chan protocol.Message { return s.in }

func (s *scriptConn) Endpoint() string { return "script://hub" }

func (s *scriptConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.in)
	}
	return nil
}

func (s *scriptConn) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// stubAuth returns canned outcomes in sequence, one per connection.
type stubAuth struct {
	outcomes []auth.Outcome
	calls    int
}

func (s *stubAuth) Run(ctx context.Context, conn transport.Conn) auth.Outcome {
	out := s.outcomes[s.calls]
	s.calls++
	return out
}

func endpoints(names ...string) []Endpoint {
	eps := make([]Endpoint, len(names))
	for i, n := range names {
		eps[i] = Endpoint{Name: n, URL: "ws://" + n + "/ws"}
	}
	return eps
}

func TestFirstEndpointWins(t *testing.T) {
	conn := newScriptConn()
	rec := store.NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now())
	sa := &stubAuth{outcomes: []auth.Outcome{auth.Authenticated(rec)}}

	var dialed []string
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			dialed = append(dialed, url)
			return conn, nil
		},
	}

	got, gotRec, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, transport.Conn(conn), got)
	assert.Equal(t, "sess-1", gotRec.SessionID)
	assert.Equal(t, []string{"ws://direct/ws"}, dialed, "relay dialed despite direct success")
}

func TestDialFailureAdvancesToNextEndpoint(t *testing.T) {
	conn := newScriptConn()
	rec := store.NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now())
	sa := &stubAuth{outcomes: []auth.Outcome{auth.Authenticated(rec)}}

	var dialed []string
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			dialed = append(dialed, url)
			if url == "ws://direct/ws" {
				return nil, errors.New("connection refused")
			}
			return conn, nil
		},
	}

	got, _, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, transport.Conn(conn), got)
	assert.Equal(t, []string{"ws://direct/ws", "ws://relay/ws"}, dialed)
}

func TestProtocolErrorAdvancesAndClosesConn(t *testing.T) {
	first := newScriptConn()
	second := newScriptConn()
	rec := store.NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now())
	sa := &stubAuth{outcomes: []auth.Outcome{
		auth.ProtocolError("no challenge"),
		auth.Authenticated(rec),
	}}

	conns := []*scriptConn{first, second}
	i := 0
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			conn := conns[i]
			i++
			return conn, nil
		},
	}

	got, _, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, transport.Conn(second), got)
	assert.True(t, first.isClosed(), "failed candidate left open")
	assert.False(t, second.isClosed())
}

func TestDeniedStopsCascade(t *testing.T) {
	conn := newScriptConn()
	sa := &stubAuth{outcomes: []auth.Outcome{auth.Denied(protocol.ReasonDenied)}}

	var dialed []string
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			dialed = append(dialed, url)
			return conn, nil
		},
	}

	_, _, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrDenied)
	assert.Contains(t, err.Error(), protocol.ReasonDenied)
	assert.Equal(t, []string{"ws://direct/ws"}, dialed, "denial must not fall through to the relay")
	assert.True(t, conn.isClosed())
}

func TestPairingTimeoutStopsCascade(t *testing.T) {
	conn := newScriptConn()
	sa := &stubAuth{outcomes: []auth.Outcome{auth.TimedOut()}}

	var dialed []string
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			dialed = append(dialed, url)
			return conn, nil
		},
	}

	_, _, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrPairingTimeout)
	assert.Len(t, dialed, 1)
}

func TestExpiredPairingCodeAdvancesToNextEndpoint(t *testing.T) {
	first := newScriptConn()
	second := newScriptConn()
	rec := store.NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now())
	sa := &stubAuth{outcomes: []auth.Outcome{
		auth.Expired(),
		auth.Authenticated(rec),
	}}

	conns := []*scriptConn{first, second}
	i := 0
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      sa,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			conn := conns[i]
			i++
			return conn, nil
		},
	}

	got, _, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, transport.Conn(second), got)
	assert.True(t, first.isClosed())
}

func TestAllEndpointsExhausted(t *testing.T) {
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      &stubAuth{},
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, _, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
}

func TestNoEndpointsConfigured(t *testing.T) {
	c := &Cascade{Auth: &stubAuth{}}
	_, _, err := c.Connect(context.Background())
	assert.Error(t, err)
}

func TestCancelledContextStopsWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialed := 0
	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      &stubAuth{},
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			dialed++
			return nil, errors.New("unreachable")
		},
	}

	_, _, err := c.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, dialed)
}

// A session paired earlier is reusable over whichever endpoint the
// cascade lands on: here the direct address is down, the relay leg
// succeeds, and the stored session authenticates without a pairing
// prompt on the second transport.
func TestStoredSessionReusedOnFallbackEndpoint(t *testing.T) {
	st := store.Load(filepath.Join(t.TempDir(), "sessions.json"), "")
	require.NoError(t, st.Upsert(store.NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now())))

	prompted := false
	authn := &auth.Authenticator{
		Store: st,
		Negotiator: &auth.Negotiator{
			Hostname: "laptop1",
			Display:  func(string, string) { prompted = true },
			Timeout:  time.Second,
		},
		ChallengeTimeout: time.Second,
		VerdictTimeout:   time.Second,
	}

	relay := newScriptConn()
	relay.in <- protocol.Message{Status: protocol.StatusAuthRequired, HubIdentity: "hub-abc123"}
	go func() {
		req := <-relay.out
		if req.SessionID == "sess-1" {
			relay.in <- protocol.Message{Status: protocol.StatusAuthenticated}
		}
	}()

	c := &Cascade{
		Endpoints: endpoints("direct", "relay"),
		Auth:      authn,
		Dial: func(ctx context.Context, url string) (transport.Conn, error) {
			if url == "ws://direct/ws" {
				return nil, errors.New("connection refused")
			}
			return relay, nil
		},
	}

	got, rec, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, transport.Conn(relay), got)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.False(t, prompted, "pairing prompt fired despite a valid stored session")
}
