package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"pairlink/internal/constants"
	"pairlink/internal/logger"
	"pairlink/internal/protocol"
)

// Conn delivers an ordered stream of protocol messages over an
// established connection. Implementations signal close by closing the
// Messages channel.
type Conn interface {
	Send(msg protocol.Message) error
	Messages() <-chan protocol.Message
	Endpoint() string
	Close() error
}

// WSConn is the websocket-backed Conn. A reader goroutine pumps decoded
// JSON text frames into the message channel; writes are serialized by a
// mutex because gorilla allows one concurrent writer.
type WSConn struct {
	conn     *websocket.Conn
	endpoint string
	inbound  chan protocol.Message
	log      *logger.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial opens a websocket to endpoint with a bounded handshake and
// starts the read pump. ctx cancellation aborts the dial.
func Dial(ctx context.Context, endpoint string, log *logger.Logger) (*WSConn, error) {
	dialer := &websocket.Dialer{
		ReadBufferSize:    constants.WSBufferSize,
		WriteBufferSize:   constants.WSBufferSize,
		EnableCompression: false,
		HandshakeTimeout:  constants.WSHandshakeTimeout,
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if log != nil {
			log.LogError("client->hub", err, endpoint)
		}
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: server returned %d", endpoint, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	conn.SetReadLimit(int64(constants.MaxWSMessageSize))

	if log != nil {
		log.LogEvent("connected", endpoint)
	}

	c := &WSConn{
		conn:     conn,
		endpoint: endpoint,
		inbound:  make(chan protocol.Message, 16),
		log:      log,
	}
	go c.readPump()
	return c, nil
}

func (c *WSConn) readPump() {
	defer close(c.inbound)
	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if c.log != nil {
				c.log.LogError("hub->client", err, c.endpoint)
			}
			return
		}
		if msg.Status == "" {
			// Not an envelope we understand; skip rather than abort.
			continue
		}
		if c.log != nil {
			c.log.LogMessage("hub->client", msg.Status, c.endpoint)
		}
		c.inbound <- msg
	}
}

func (c *WSConn) Send(msg protocol.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(msg); err != nil {
		if c.log != nil {
			c.log.LogError("client->hub", err, c.endpoint)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	if c.log != nil {
		c.log.LogMessage("client->hub", msg.Status, c.endpoint)
	}
	return nil
}

func (c *WSConn) Messages() <-chan protocol.Message {
	return c.inbound
}

func (c *WSConn) Endpoint() string {
	return c.endpoint
}

func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.log != nil {
			c.log.LogEvent("closing", c.endpoint)
		}
		err = c.conn.Close()
	})
	return err
}
