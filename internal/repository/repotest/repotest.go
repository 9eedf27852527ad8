// Package repotest holds the behaviour every repository.Store backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("avatars", func(t *testing.T) { testAvatars(t, newStore(t)) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, newStore(t)) })
	t.Run("list tasks", func(t *testing.T) { testListTasks(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewAccount returns an account ready to insert.
func NewAccount(name, email string) *domain.Account {
	return &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Age:          27,
		PasswordHash: []byte("hash"),
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

func newTask(ownerID, description string, completed bool, offset time.Duration) *domain.Task {
	at := base.Add(offset)
	return &domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: description,
		Completed:   completed,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func testAccounts(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))

	dup := NewAccount("Other", "lucas@example.com")
	assert.ErrorIs(t, store.CreateAccount(ctx, dup), repository.ErrConflict)

	got, err := store.GetAccountByID(ctx, lucas.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lucas", got.Name)
	assert.Equal(t, 27, got.Age)
	assert.Equal(t, []byte("hash"), got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.Empty(t, got.Sessions)

	got, err = store.GetAccountByEmail(ctx, "lucas@example.com")
	require.NoError(t, err)
	assert.Equal(t, lucas.ID, got.ID)

	_, err = store.GetAccountByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetAccountByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	pedro := NewAccount("Pedro", "pedro@example.com")
	require.NoError(t, store.CreateAccount(ctx, pedro))
	pedro.Email = "lucas@example.com"
	assert.ErrorIs(t, store.UpdateAccount(ctx, pedro), repository.ErrConflict)

	pedro.Email = "pedro.b@example.com"
	pedro.Name = "Pedro B"
	pedro.Age = 31
	pedro.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.UpdateAccount(ctx, pedro))
	got, err = store.GetAccountByID(ctx, pedro.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pedro B", got.Name)
	assert.Equal(t, "pedro.b@example.com", got.Email)
	assert.Equal(t, 31, got.Age)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	ghost := NewAccount("Ghost", "ghost@example.com")
	assert.ErrorIs(t, store.UpdateAccount(ctx, ghost), repository.ErrNotFound)

	require.NoError(t, store.DeleteAccount(ctx, pedro.ID))
	assert.ErrorIs(t, store.DeleteAccount(ctx, pedro.ID), repository.ErrNotFound)
	_, err = store.GetAccountByID(ctx, pedro.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testSessions(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))

	digests := []string{"d1", "d2", "d3"}
	for _, d := range digests {
		require.NoError(t, store.AppendSession(ctx, domain.Session{AccountID: lucas.ID, TokenDigest: d, CreatedAt: base}))
	}
	err := store.AppendSession(ctx, domain.Session{AccountID: uuid.NewString(), TokenDigest: "x", CreatedAt: base})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := store.GetAccountByID(ctx, lucas.ID)
	require.NoError(t, err)
	require.Len(t, got.Sessions, 3)
	for i, sess := range got.Sessions {
		assert.Equal(t, digests[i], sess.TokenDigest)
		assert.Equal(t, lucas.ID, sess.AccountID)
	}
	entry, ok := got.SessionByDigest("d2")
	require.True(t, ok)
	assert.Equal(t, digests[1], entry.TokenDigest)

	require.NoError(t, store.RemoveSession(ctx, lucas.ID, "d2"))
	require.NoError(t, store.RemoveSession(ctx, lucas.ID, "d2"))
	got, err = store.GetAccountByID(ctx, lucas.ID)
	require.NoError(t, err)
	require.Len(t, got.Sessions, 2)
	assert.Equal(t, "d1", got.Sessions[0].TokenDigest)
	assert.Equal(t, "d3", got.Sessions[1].TokenDigest)

	require.NoError(t, store.ClearSessions(ctx, lucas.ID))
	got, err = store.GetAccountByID(ctx, lucas.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Sessions)
}

func testAvatars(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))

	_, err := store.GetAvatar(ctx, lucas.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.SetAvatar(ctx, lucas.ID, []byte{0x89, 'P', 'N', 'G'}))
	image, err := store.GetAvatar(ctx, lucas.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, image)

	require.NoError(t, store.SetAvatar(ctx, lucas.ID, nil))
	_, err = store.GetAvatar(ctx, lucas.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, store.SetAvatar(ctx, uuid.NewString(), []byte{1}), repository.ErrNotFound)
}

func testTasks(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	pedro := NewAccount("Pedro", "pedro@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))
	require.NoError(t, store.CreateAccount(ctx, pedro))

	task := newTask(lucas.ID, "Buy milk", false, 0)
	require.NoError(t, store.CreateTask(ctx, task))
	assert.ErrorIs(t, store.CreateTask(ctx, newTask(uuid.NewString(), "orphan", false, 0)), repository.ErrNotFound)

	got, err := store.GetTask(ctx, lucas.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Description)
	assert.False(t, got.Completed)

	_, err = store.GetTask(ctx, pedro.ID, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "tasks are invisible to other owners")

	done := true
	_, err = store.UpdateTask(ctx, pedro.ID, task.ID, domain.TaskPatch{Completed: &done})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := store.UpdateTask(ctx, lucas.ID, task.ID, domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Description)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	description := "Buy oat milk"
	updated, err = store.UpdateTask(ctx, lucas.ID, task.ID, domain.TaskPatch{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Description)
	assert.True(t, updated.Completed)

	_, err = store.DeleteTask(ctx, pedro.ID, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	removed, err := store.DeleteTask(ctx, lucas.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, removed.ID)
	_, err = store.GetTask(ctx, lucas.ID, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	for i := range 3 {
		require.NoError(t, store.CreateTask(ctx, newTask(lucas.ID, "lucas task", false, time.Duration(i)*time.Minute)))
	}
	require.NoError(t, store.CreateTask(ctx, newTask(pedro.ID, "pedro task", false, 0)))
	count, err := store.DeleteTasksByOwner(ctx, lucas.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	left, err := collect(store, pedro.ID, domain.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func testListTasks(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))

	fixtures := []*domain.Task{
		newTask(lucas.ID, "c walk dog", false, 0),
		newTask(lucas.ID, "a buy milk", true, time.Minute),
		newTask(lucas.ID, "d pay rent", false, 2*time.Minute),
		newTask(lucas.ID, "b call mom", true, 3*time.Minute),
	}
	for _, task := range fixtures {
		require.NoError(t, store.CreateTask(ctx, task))
	}
	yes, no := true, false

	tests := []struct {
		name  string
		query domain.TaskQuery
		want  []string
	}{
		{"default order", domain.TaskQuery{}, []string{"c walk dog", "a buy milk", "d pay rent", "b call mom"}},
		{"completed only", domain.TaskQuery{Completed: &yes}, []string{"a buy milk", "b call mom"}},
		{"open only", domain.TaskQuery{Completed: &no}, []string{"c walk dog", "d pay rent"}},
		{"by description", domain.TaskQuery{SortBy: domain.TaskSortDescription}, []string{"a buy milk", "b call mom", "c walk dog", "d pay rent"}},
		{"created desc", domain.TaskQuery{SortBy: domain.TaskSortCreatedAt, Desc: true}, []string{"b call mom", "d pay rent", "a buy milk", "c walk dog"}},
		{"completed asc keeps creation order on ties", domain.TaskQuery{SortBy: domain.TaskSortCompleted}, []string{"c walk dog", "d pay rent", "a buy milk", "b call mom"}},
		{"limit", domain.TaskQuery{Limit: 2}, []string{"c walk dog", "a buy milk"}},
		{"skip", domain.TaskQuery{Skip: 3}, []string{"b call mom"}},
		{"limit and skip", domain.TaskQuery{Limit: 1, Skip: 1, SortBy: domain.TaskSortDescription}, []string{"b call mom"}},
		{"skip past end", domain.TaskQuery{Skip: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := collect(store, lucas.ID, tt.query)
			require.NoError(t, err)
			got := make([]string, 0, len(tasks))
			for _, task := range tasks {
				got = append(got, task.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("stops when the consumer stops", func(t *testing.T) {
		seen := 0
		for _, err := range store.ListTasks(ctx, lucas.ID, domain.TaskQuery{}) {
			require.NoError(t, err)
			seen++
			if seen == 2 {
				break
			}
		}
		assert.Equal(t, 2, seen)
	})
}

func testTransactions(t *testing.T, store repository.Store) {
	ctx := context.Background()
	lucas := NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, lucas))
	require.NoError(t, store.CreateTask(ctx, newTask(lucas.ID, "Buy milk", false, 0)))
	require.NoError(t, store.AppendSession(ctx, domain.Session{AccountID: lucas.ID, TokenDigest: "d1", CreatedAt: base}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := store.DeleteTasksByOwner(ctx, lucas.ID); err != nil {
			return err
		}
		if err := store.ClearSessions(ctx, lucas.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tasks, err := collect(store, lucas.ID, domain.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "rolled back")
	got, err := store.GetAccountByID(ctx, lucas.ID)
	require.NoError(t, err)
	assert.Len(t, got.Sessions, 1)

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := store.DeleteTasksByOwner(ctx, lucas.ID); err != nil {
			return err
		}
		if err := store.ClearSessions(ctx, lucas.ID); err != nil {
			return err
		}
		return store.DeleteAccount(ctx, lucas.ID)
	})
	require.NoError(t, err)
	_, err = store.GetAccountByID(ctx, lucas.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	tasks, err = collect(store, lucas.ID, domain.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func collect(store repository.Store, ownerID string, query domain.TaskQuery) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	for task, err := range store.ListTasks(context.Background(), ownerID, query) {
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
