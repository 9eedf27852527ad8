package httpx

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iranadryan/task-manager/internal/service/account"
	"github.com/iranadryan/task-manager/internal/service/auth"
	"github.com/iranadryan/task-manager/internal/service/session"
	"github.com/iranadryan/task-manager/internal/service/task"
	"github.com/iranadryan/task-manager/internal/ws"
)

const (
	healthCheckTimeout = 2 * time.Second
	heartbeatInterval  = 15 * time.Second
	maxJSONBody        = 1 << 20
)

// Services bundles the domain services the router exposes.
type Services struct {
	Accounts account.Service
	Sessions session.Service
	Guard    auth.Guard
	Tasks    task.Service
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux       *http.ServeMux
	handler   http.Handler
	logger    *slog.Logger
	accounts  account.Service
	sessions  session.Service
	guard     auth.Guard
	tasks     task.Service
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	metrics   metrics
	registry  *prometheus.Registry
	dbHealth  func(context.Context) error
	heartbeat time.Duration
}

// NewRouter assembles routes with dependencies. registry receives the HTTP
// metrics and is served on /metrics.
func NewRouter(logger *slog.Logger, svc Services, hub *ws.Hub, registry *prometheus.Registry, dbHealth func(context.Context) error) *Router {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		accounts: svc.Accounts,
		sessions: svc.Sessions,
		guard:    svc.Guard,
		tasks:    svc.Tasks,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics:   newMetrics(registry),
		registry:  registry,
		dbHealth:  dbHealth,
		heartbeat: heartbeatInterval,
	}
	r.register()
	r.handler = otelhttp.NewHandler(r.mux, "task-manager",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
	return r
}

// ServeHTTP delegates to the traced mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /healthz", r.audit(r.handleHealthz))
	r.mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	r.mux.HandleFunc("POST /users", r.audit(r.handleRegister))
	r.mux.HandleFunc("POST /users/login", r.audit(r.handleLogin))
	r.mux.HandleFunc("POST /users/logout", r.audit(r.requireAuth(r.handleLogout)))
	r.mux.HandleFunc("POST /users/logout-all", r.audit(r.requireAuth(r.handleLogoutAll)))
	r.mux.HandleFunc("GET /users/me", r.audit(r.requireAuth(r.handleMe)))
	r.mux.HandleFunc("PATCH /users/me", r.audit(r.requireAuth(r.handleUpdateMe)))
	r.mux.HandleFunc("DELETE /users/me", r.audit(r.requireAuth(r.handleDeleteMe)))
	r.mux.HandleFunc("POST /users/me/avatar", r.audit(r.requireAuth(r.handleUploadAvatar)))
	r.mux.HandleFunc("DELETE /users/me/avatar", r.audit(r.requireAuth(r.handleDeleteAvatar)))
	r.mux.HandleFunc("GET /users/{id}/avatar", r.audit(r.handleGetAvatar))

	r.mux.HandleFunc("POST /tasks", r.audit(r.requireAuth(r.handleCreateTask)))
	r.mux.HandleFunc("GET /tasks", r.audit(r.requireAuth(r.handleListTasks)))
	r.mux.HandleFunc("GET /tasks/events", r.audit(r.requireAuth(r.handleTaskEvents)))
	r.mux.HandleFunc("GET /tasks/{id}", r.audit(r.requireAuth(r.handleGetTask)))
	r.mux.HandleFunc("PATCH /tasks/{id}", r.audit(r.requireAuth(r.handleUpdateTask)))
	r.mux.HandleFunc("DELETE /tasks/{id}", r.audit(r.requireAuth(r.handleDeleteTask)))
	r.mux.HandleFunc("GET /ws/tasks", r.audit(r.requireAuth(r.handleTasksWS)))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			r.logger.Warn("database health check failed", "error", err)
			components["database"] = map[string]any{"status": "down"}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)
		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.metrics.recordRequest(req.Method, req.Pattern, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if principal, ok := principalFromContext(ctx); ok {
			actor = "account"
			fields = append(fields, "user_id", principal.Account.ID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		sr.status = http.StatusSwitchingProtocols
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
