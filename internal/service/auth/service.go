package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/service/session"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Account *domain.Account
	Token   string
	Session domain.Session
}

// Resolver maps a bearer token to its account and session.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Account, domain.Session, error)
}

// Guard authenticates bearer tokens. It never mutates session state.
type Guard struct {
	resolver Resolver
	logger   *slog.Logger
}

// New constructs a Guard.
func New(resolver Resolver, logger *slog.Logger) Guard {
	return Guard{resolver: resolver, logger: logger}
}

// Authenticate resolves token into a Principal.
func (g Guard) Authenticate(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, session.ErrInvalidToken
	}
	account, entry, err := g.resolver.Resolve(ctx, token)
	if err != nil {
		g.logger.Debug("authentication rejected", "error", err)
		return Principal{}, err
	}
	return Principal{Account: account, Token: token, Session: entry}, nil
}
