package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client wraps a websocket connection subscribed to an owner's task stream.
type Client struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewClient constructs a client wrapper.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{conn: conn, logger: logger}
}

// Send writes payload as a text frame.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Warn("websocket send failed", "error", err)
		return err
	}
	return nil
}

// Wait discards inbound frames until the peer disconnects or the connection is closed.
func (c *Client) Wait() {
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// Close terminates the connection. WriteControl and Close are safe alongside a pending
// Send, so Close does not wait for the write lock.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}
