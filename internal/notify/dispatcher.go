package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Dispatcher accepts messages from request paths and delivers them from a single worker.
type Dispatcher struct {
	queue       Queue
	sender      Sender
	logger      *slog.Logger
	pushTimeout time.Duration
	sendTimeout time.Duration
}

// NewDispatcher constructs a Dispatcher over queue and sender.
func NewDispatcher(queue Queue, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		pushTimeout: 250 * time.Millisecond,
		sendTimeout: 30 * time.Second,
	}
}

// Notify enqueues msg. Failures are logged and never returned; the caller's
// cancellation does not abort the enqueue.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.pushTimeout)
	defer cancel()
	if err := d.queue.Push(pushCtx, msg); err != nil {
		d.logger.Warn("notification dropped", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

// Run delivers queued messages until ctx is cancelled or the queue is closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("notification dispatcher started")
	for {
		msg, err := d.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrQueueClosed) {
				d.logger.Info("notification dispatcher stopped")
				return nil
			}
			d.logger.Error("dequeue notification", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.logger.Error("send notification", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.logger.Debug("notification sent", "to", msg.To, "subject", msg.Subject)
}
