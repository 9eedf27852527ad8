package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iranadryan/task-manager/internal/service/auth"
	"github.com/iranadryan/task-manager/internal/service/task"
	"github.com/iranadryan/task-manager/internal/ws"
)

// EventPublisher encodes task events and broadcasts them on the owner's hub stream.
type EventPublisher struct {
	hub    *ws.Hub
	logger *slog.Logger
}

// NewEventPublisher constructs an EventPublisher over hub.
func NewEventPublisher(hub *ws.Hub, logger *slog.Logger) EventPublisher {
	return EventPublisher{hub: hub, logger: logger}
}

// Publish implements task.Publisher.
func (p EventPublisher) Publish(ownerID string, event task.Event) {
	payload, err := json.Marshal(map[string]any{
		"type": event.Type,
		"task": marshalTask(event.Task),
	})
	if err != nil {
		p.logger.Error("encode task event", "error", err)
		return
	}
	p.hub.Broadcast(ownerID, payload)
}

// sessionBoundSubscriber forwards events only while the stream's session is still live.
// A revoked token fails Send, which makes the hub drop and close the stream.
type sessionBoundSubscriber struct {
	ws.Subscriber
	ctx   context.Context
	guard auth.Guard
	token string
}

func (s *sessionBoundSubscriber) Send(payload []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Subscriber.Send(payload)
}

func (s *sessionBoundSubscriber) check() error {
	if _, err := s.guard.Authenticate(s.ctx, s.token); err != nil {
		return fmt.Errorf("stream session ended: %w", err)
	}
	return nil
}

func (r *Router) bindSession(req *http.Request, principal auth.Principal, client ws.Subscriber) *sessionBoundSubscriber {
	return &sessionBoundSubscriber{Subscriber: client, ctx: req.Context(), guard: r.guard, token: principal.Token}
}

func (r *Router) handleTaskEvents(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	client := ws.NewSSEClient(w, r.logger)

	ownerID := principal.Account.ID
	sub := r.bindSession(req, principal, client)
	r.hub.Register(ownerID, sub)
	r.metrics.streamOpened("sse")
	defer func() {
		r.hub.Unregister(ownerID, sub)
		client.Release()
		r.metrics.streamClosed("sse")
	}()

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			if err := sub.check(); err != nil {
				r.logger.Info("closing event stream", "account_id", ownerID, "error", err)
				return
			}
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleTasksWS(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	ownerID := principal.Account.ID
	client := ws.NewClient(conn, r.logger)
	sub := r.bindSession(req, principal, client)
	r.hub.Register(ownerID, sub)
	r.metrics.streamOpened("websocket")
	stop := make(chan struct{})
	defer func() {
		close(stop)
		r.hub.Unregister(ownerID, sub)
		client.Close()
		r.metrics.streamClosed("websocket")
	}()

	go func() {
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := sub.check(); err != nil {
					r.logger.Info("closing websocket stream", "account_id", ownerID, "error", err)
					client.Close()
					return
				}
			}
		}
	}()
	client.Wait()
}
