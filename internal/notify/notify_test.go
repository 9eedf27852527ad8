package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
	seen chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{seen: make(chan struct{}, 16)}
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.seen <- struct{}{}
	return s.err
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestTemplates(t *testing.T) {
	welcome := Welcome("lucas@example.com", "Lucas")
	assert.Equal(t, "lucas@example.com", welcome.To)
	assert.Contains(t, welcome.Body, "Lucas")

	bye := Cancellation("lucas@example.com", "Lucas")
	assert.Equal(t, "Sorry to see you go!", bye.Subject)
	assert.Contains(t, bye.Body, "Lucas")
}

func TestMemoryQueueIsBoundedAndNonBlocking(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, Message{To: "a"}))
	assert.ErrorIs(t, q.Push(ctx, Message{To: "b"}), ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	msg, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", msg.To)
}

func TestMemoryQueuePopHonoursContextAndClose(t *testing.T) {
	q := NewMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Push(context.Background(), Message{}), ErrQueueClosed)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	q := NewMemoryQueue(4)
	sender := newRecordingSender()
	d := NewDispatcher(q, sender, newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Notify(ctx, Welcome("a@example.com", "A"))
	d.Notify(ctx, Cancellation("b@example.com", "B"))
	for range 2 {
		select {
		case <-sender.seen:
		case <-time.After(time.Second):
			t.Fatal("message was not delivered")
		}
	}
	cancel()
	require.NoError(t, <-done)

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, "b@example.com", sent[1].To)
}

func TestDispatcherSurvivesSendFailures(t *testing.T) {
	q := NewMemoryQueue(4)
	sender := newRecordingSender()
	sender.err = errors.New("relay down")
	d := NewDispatcher(q, sender, newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Notify(ctx, Welcome("a@example.com", "A"))
	d.Notify(ctx, Welcome("b@example.com", "B"))
	for range 2 {
		select {
		case <-sender.seen:
		case <-time.After(time.Second):
			t.Fatal("dispatcher stopped after a failed send")
		}
	}
	cancel()
	require.NoError(t, <-done)
}

func TestNotifyDropsWhenQueueFull(t *testing.T) {
	q := NewMemoryQueue(1)
	d := NewDispatcher(q, newRecordingSender(), newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, Message{To: "a"})
	d.Notify(ctx, Message{To: "b"})
	assert.Equal(t, 1, q.Len())
}

func TestRunStopsWhenQueueCloses(t *testing.T) {
	q := NewMemoryQueue(1)
	d := NewDispatcher(q, newRecordingSender(), newLogger())
	require.NoError(t, q.Close())
	assert.NoError(t, d.Run(context.Background()))
}
