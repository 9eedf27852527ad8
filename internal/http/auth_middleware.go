package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/service/auth"
)

type authContextKey string

const contextKeyPrincipal authContextKey = "task-manager-principal"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request has a valid bearer token before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the Authorization header and stores the principal in the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, auth.Principal, bool) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "please authenticate")
		return req.Context(), auth.Principal{}, false
	}
	principal, err := r.guard.Authenticate(req.Context(), token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			r.writeServiceError(w, req, err)
			return req.Context(), auth.Principal{}, false
		}
		r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "please authenticate")
		return req.Context(), auth.Principal{}, false
	}
	ctx := context.WithValue(req.Context(), contextKeyPrincipal, principal)
	return ctx, principal, true
}

// principalFromContext extracts the authenticated caller from ctx.
func principalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(contextKeyPrincipal).(auth.Principal)
	return principal, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
