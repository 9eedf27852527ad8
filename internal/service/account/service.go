package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iranadryan/task-manager/internal/avatar"
	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/notify"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/pkg/config"
	"github.com/iranadryan/task-manager/pkg/crypto"
)

// ErrInvalidCredentials is returned by Verify for an unknown email or a wrong password alike.
var ErrInvalidCredentials = fmt.Errorf("%w: unable to login", domain.ErrUnauthenticated)

// TaskCascader removes every task of an owner.
type TaskCascader interface {
	CascadeDeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Notifier enqueues outbound email without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// Service manages account records and credentials.
type Service struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	tx       repository.Transactor
	tasks    TaskCascader
	avatars  avatar.Store
	notifier Notifier
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	tx repository.Transactor,
	tasks TaskCascader,
	avatars avatar.Store,
	notifier Notifier,
	logger *slog.Logger,
	cfg config.APIConfig,
) Service {
	return Service{
		accounts: accounts,
		sessions: sessions,
		tx:       tx,
		tasks:    tasks,
		avatars:  avatars,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// Register validates input, stores a new account and queues a welcome email.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Age < 0 {
		return nil, domain.NewValidationError("age", "must be a positive number")
	}
	hash, err := crypto.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Age:          in.Age,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.NewValidationError("email", "is already registered")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.notify(ctx, notify.Welcome(account.Email, account.Name))
	s.logger.Info("account registered", "account_id", account.ID)
	return account, nil
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := crypto.HashPassword("not-a-real-password", 0)
	return hash
})

// Verify checks credentials and returns the matching account.
func (s Service) Verify(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, canonicalEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = crypto.ComparePassword(dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if err := crypto.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Get loads an account by id.
func (s Service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// Delete removes the account, its tasks and its sessions in one transaction,
// then drops the avatar and queues a cancellation email.
func (s Service) Delete(ctx context.Context, accountID string) (*domain.Account, error) {
	var removed *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		count, err := s.tasks.CascadeDeleteByOwner(ctx, accountID)
		if err != nil {
			return fmt.Errorf("cascade tasks: %w", err)
		}
		if err := s.sessions.ClearSessions(ctx, accountID); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}
		if err := s.accounts.DeleteAccount(ctx, accountID); err != nil {
			return err
		}
		s.logger.Debug("account cascade", "account_id", accountID, "tasks", count)
		removed = account
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete account: %w", err)
	}
	if err := s.avatars.Delete(ctx, accountID); err != nil {
		s.logger.Warn("remove avatar after account deletion", "account_id", accountID, "error", err)
	}
	s.notify(ctx, notify.Cancellation(removed.Email, removed.Name))
	s.logger.Info("account deleted", "account_id", accountID)
	return removed, nil
}

func (s Service) notify(ctx context.Context, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, msg)
}
