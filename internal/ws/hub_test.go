package ws

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	payloads []string
	fail     bool
	closed   bool
}

func (r *recorder) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broken pipe")
	}
	r.payloads = append(r.payloads, string(payload))
	return nil
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recorder) snapshot() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.payloads...), r.closed
}

func TestHubRoutesByOwner(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	lucas, pedro := &recorder{}, &recorder{}
	hub.Register("lucas", lucas)
	hub.Register("pedro", pedro)
	require.Equal(t, 1, hub.Subscribers("lucas"))

	hub.Broadcast("lucas", []byte("one"))

	require.Eventually(t, func() bool {
		got, _ := lucas.snapshot()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	got, _ := lucas.snapshot()
	assert.Equal(t, []string{"one"}, got)
	got, _ = pedro.snapshot()
	assert.Empty(t, got)
}

func TestHubDropsFailingSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	broken := &recorder{fail: true}
	hub.Register("lucas", broken)
	hub.Broadcast("lucas", []byte("one"))

	require.Eventually(t, func() bool {
		_, closed := broken.snapshot()
		return closed && hub.Subscribers("lucas") == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHubUnregisterAndStop(t *testing.T) {
	hub := NewHub()
	a, b := &recorder{}, &recorder{}
	hub.Register("lucas", a)
	hub.Register("lucas", b)
	hub.Unregister("lucas", a)
	assert.Equal(t, 1, hub.Subscribers("lucas"))

	hub.Stop()
	hub.Stop()
	hub.Broadcast("lucas", []byte("late"))
	assert.Equal(t, 0, hub.Subscribers("lucas"))

	require.Eventually(t, func() bool {
		_, closed := b.snapshot()
		return closed
	}, time.Second, 5*time.Millisecond)
}

func TestSSEClientFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	client := NewSSEClient(rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, client.Send([]byte(`{"type":"created"}`)))
	require.NoError(t, client.Heartbeat())
	client.Close()
	assert.ErrorIs(t, client.Send([]byte("x")), io.EOF)

	assert.Equal(t, "data: {\"type\":\"created\"}\n\n: ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
	select {
	case <-client.Done():
	default:
		t.Fatal("closed client must report done")
	}

	client.Release()
	assert.ErrorIs(t, client.Heartbeat(), io.EOF)
}

// stalledWriter is a response writer whose peer never reads.
type stalledWriter struct {
	header  http.Header
	release chan struct{}
}

func newStalledWriter() *stalledWriter {
	return &stalledWriter{header: http.Header{}, release: make(chan struct{})}
}

func (w *stalledWriter) Header() http.Header { return w.header }
func (w *stalledWriter) WriteHeader(int)     {}
func (w *stalledWriter) Flush()              {}

func (w *stalledWriter) Write(p []byte) (int, error) {
	<-w.release
	return 0, io.ErrClosedPipe
}

func TestHubIsolatesStalledSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	stalled := newStalledWriter()
	defer close(stalled.release)
	slow := NewSSEClient(stalled, slog.New(slog.NewTextHandler(io.Discard, nil)))
	victim := &recorder{}
	hub.Register("slow", slow)
	hub.Register("victim", victim)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < outboxSize*4; i++ {
			hub.Broadcast("slow", []byte("flood"))
		}
		hub.Broadcast("victim", []byte("still here"))
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked behind a stalled subscriber")
	}

	require.Eventually(t, func() bool {
		got, _ := victim.snapshot()
		return len(got) == 1 && got[0] == "still here"
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return hub.Subscribers("slow") == 0
	}, time.Second, 5*time.Millisecond)
	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("stalled subscriber was not closed")
	}
}
