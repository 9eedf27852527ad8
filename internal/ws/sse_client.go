package ws

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// SSEClient streams Server-Sent Events over an HTTP response writer.
type SSEClient struct {
	mu        sync.Mutex
	writer    http.ResponseWriter
	rc        *http.ResponseController
	logger    *slog.Logger
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewSSEClient builds an SSE client instance.
func NewSSEClient(w http.ResponseWriter, logger *slog.Logger) *SSEClient {
	return &SSEClient{
		writer: w,
		rc:     http.NewResponseController(w),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Send emits payload as a data event.
func (c *SSEClient) Send(payload []byte) error {
	return c.write("data: %s\n\n", payload)
}

// Heartbeat emits a comment frame to keep intermediaries from timing out the stream.
func (c *SSEClient) Heartbeat() error {
	return c.write(": ping\n\n")
}

func (c *SSEClient) write(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return io.EOF
	}
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		c.fail(err)
		return err
	}
	if _, err := fmt.Fprintf(c.writer, format, args...); err != nil {
		c.fail(err)
		return err
	}
	if err := c.rc.Flush(); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

func (c *SSEClient) fail(err error) {
	c.logger.Warn("sse write failed", "error", err)
	c.Close()
}

// Done is closed once the stream is closed, either explicitly or after a failed write.
func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}

// Close marks the stream as closed; later writes fail with io.EOF. It never waits on an in-flight write.
func (c *SSEClient) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

// Release closes the stream and waits for an in-flight write to finish, after which the
// response writer is no longer touched. A stuck write is bounded by the write deadline.
func (c *SSEClient) Release() {
	c.Close()
	c.mu.Lock()
	c.writer = nil
	c.mu.Unlock()
}
