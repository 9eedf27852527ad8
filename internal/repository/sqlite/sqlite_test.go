package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranadryan/task-manager/internal/app/migrate"
	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/internal/repository/repotest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	runner, err := migrate.New(migrate.DriverSQLite, DSN(path), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, runner.Ensure(context.Background()))

	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return openTestStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestDeleteAccountCascadesThroughForeignKeys(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	account := repotest.NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))
	require.NoError(t, store.CreateTask(ctx, &domain.Task{ID: "t1", OwnerID: account.ID, Description: "Buy milk"}))

	require.NoError(t, store.DeleteAccount(ctx, account.ID))
	count, err := store.DeleteTasksByOwner(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEmailLookupIgnoresCase(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	account := repotest.NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))

	got, err := store.GetAccountByEmail(ctx, "LUCAS@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
}

func TestBuildListTasks(t *testing.T) {
	yes := true
	tests := []struct {
		name     string
		query    domain.TaskQuery
		wantTail string
		wantArgs []any
	}{
		{
			name:     "default",
			wantTail: " ORDER BY created_at ASC, rowid ASC",
			wantArgs: []any{"acc"},
		},
		{
			name:     "filter sort and page",
			query:    domain.TaskQuery{Completed: &yes, SortBy: domain.TaskSortDescription, Desc: true, Limit: 5, Skip: 10},
			wantTail: " AND completed = ? ORDER BY description DESC, created_at ASC, rowid ASC LIMIT ? OFFSET ?",
			wantArgs: []any{"acc", true, 5, 10},
		},
		{
			name:     "skip without limit",
			query:    domain.TaskQuery{Skip: 2},
			wantTail: " ORDER BY created_at ASC, rowid ASC LIMIT -1 OFFSET ?",
			wantArgs: []any{"acc", 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListTasks("acc", tt.query)
			assert.Equal(t, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ?`+tt.wantTail, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
