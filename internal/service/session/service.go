package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/pkg/config"
	"github.com/iranadryan/task-manager/pkg/crypto"
	jwtpkg "github.com/iranadryan/task-manager/pkg/jwt"
)

// ErrInvalidToken is returned for a token that is malformed, badly signed, expired,
// revoked, or that names an account which no longer exists.
var ErrInvalidToken = fmt.Errorf("%w: invalid or revoked token", domain.ErrUnauthenticated)

// Service issues, resolves and revokes bearer tokens.
type Service struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(accounts repository.AccountRepository, sessions repository.SessionRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{accounts: accounts, sessions: sessions, logger: logger, cfg: cfg}
}

// Issue signs a new token for accountID and records it as an active session.
func (s Service) Issue(ctx context.Context, accountID string) (string, error) {
	token, err := jwtpkg.GenerateToken(accountID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	entry := domain.Session{
		AccountID:   accountID,
		TokenDigest: crypto.Digest(token),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.sessions.AppendSession(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("issue session: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("append session: %w", err)
	}
	s.logger.Debug("session issued", "account_id", accountID)
	return token, nil
}

// Resolve maps a token onto its account and the matching session entry.
func (s Service) Resolve(ctx context.Context, token string) (*domain.Account, domain.Session, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, domain.Session{}, ErrInvalidToken
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, domain.Session{}, ErrInvalidToken
	}
	account, err := s.accounts.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Session{}, ErrInvalidToken
		}
		return nil, domain.Session{}, fmt.Errorf("load account: %w", err)
	}
	entry, ok := account.SessionByDigest(crypto.Digest(trimmed))
	if !ok {
		return nil, domain.Session{}, ErrInvalidToken
	}
	return account, entry, nil
}

// RevokeOne removes the session matching token. Revoking an unknown token is a no-op.
func (s Service) RevokeOne(ctx context.Context, accountID, token string) error {
	if err := s.sessions.RemoveSession(ctx, accountID, crypto.Digest(strings.TrimSpace(token))); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.Debug("session revoked", "account_id", accountID)
	return nil
}

// RevokeAll clears every session of accountID.
func (s Service) RevokeAll(ctx context.Context, accountID string) error {
	if err := s.sessions.ClearSessions(ctx, accountID); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	s.logger.Info("all sessions revoked", "account_id", accountID)
	return nil
}
