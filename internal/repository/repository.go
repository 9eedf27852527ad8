package repository

import (
	"context"
	"iter"

	"github.com/iranadryan/task-manager/internal/domain"
)

// AccountRepository persists accounts. Loaded accounts carry their sessions in issuance order.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, account *domain.Account) error
	DeleteAccount(ctx context.Context, id string) error
}

// SessionRepository mutates the session list of an account. Each call is a single
// atomic storage operation, so concurrent mutations on one account serialize.
type SessionRepository interface {
	AppendSession(ctx context.Context, session domain.Session) error
	RemoveSession(ctx context.Context, accountID, digest string) error
	ClearSessions(ctx context.Context, accountID string) error
}

// TaskRepository persists tasks. Every call is scoped by owner.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerID string, query domain.TaskQuery) iter.Seq2[domain.Task, error]
	DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error)
}

// AvatarRepository stores avatar images alongside accounts.
type AvatarRepository interface {
	SetAvatar(ctx context.Context, accountID string, image []byte) error
	GetAvatar(ctx context.Context, accountID string) ([]byte, error)
}

// Transactor runs fn inside a storage transaction. Repository calls made with the
// context handed to fn join that transaction; fn's error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every repository a backend provides.
type Store interface {
	AccountRepository
	SessionRepository
	TaskRepository
	AvatarRepository
	Transactor
	Ping(ctx context.Context) error
	Close() error
}
