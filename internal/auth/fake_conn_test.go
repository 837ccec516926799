package auth

import (
	"sync"

	"pairlink/internal/protocol"
)

// fakeConn is a channel-backed transport.Conn for driving the state
// machine without a network.
type fakeConn struct {
	in  chan protocol.Message
	out chan protocol.Message

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:  make(chan protocol.Message, 16),
		out: make(chan protocol.Message, 16),
	}
}

func (f *fakeConn) Send(msg protocol.Message) error {
	f.out <- msg
	return nil
}

func (f *fakeConn) Messages() <-chan protocol.Message { return f.in }

func (f *fakeConn) Endpoint() string { return "fake://hub" }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
	return nil
}

// sentCount drains nothing; it reports how many messages are waiting
// unread on the hub side.
func (f *fakeConn) sentCount() int { return len(f.out) }
