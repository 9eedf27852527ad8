package notify

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned by Push when a bounded queue has no room.
	ErrQueueFull = errors.New("notify: queue full")
	// ErrQueueClosed is returned once a queue has been closed.
	ErrQueueClosed = errors.New("notify: queue closed")
)

// Queue buffers messages between request handlers and the dispatcher.
type Queue interface {
	Push(ctx context.Context, msg Message) error
	Pop(ctx context.Context) (Message, error)
	Close() error
}

// MemoryQueue is a bounded in-process queue. Push never blocks.
type MemoryQueue struct {
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryQueue returns a queue holding up to size messages.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{ch: make(chan Message, size), done: make(chan struct{})}
}

// Push enqueues msg or fails with ErrQueueFull.
func (q *MemoryQueue) Push(_ context.Context, msg Message) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits for the next message.
func (q *MemoryQueue) Pop(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.done:
		return Message{}, ErrQueueClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Len reports the number of buffered messages.
func (q *MemoryQueue) Len() int { return len(q.ch) }

// Close wakes pending Pop calls. Buffered messages are dropped.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
