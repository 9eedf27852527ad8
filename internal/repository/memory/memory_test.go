package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return New() })
}

func TestReturnedAccountsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	account := repotest.NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))
	require.NoError(t, store.AppendSession(ctx, domain.Session{AccountID: account.ID, TokenDigest: "d1"}))

	got, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	got.Sessions[0].TokenDigest = "tampered"
	got.PasswordHash[0] = 'X'

	again, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "d1", again.Sessions[0].TokenDigest)
	assert.Equal(t, []byte("hash"), again.PasswordHash)
}

func TestConcurrentAppendSession(t *testing.T) {
	store := New()
	ctx := context.Background()
	account := repotest.NewAccount("Lucas", "lucas@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			digest := string(rune('a' + i%26)) + string(rune('0'+i/26))
			assert.NoError(t, store.AppendSession(ctx, domain.Session{AccountID: account.ID, TokenDigest: digest}))
		}()
	}
	wg.Wait()

	got, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, got.Sessions, 50)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	store := New()
	ctx := context.Background()
	account := repotest.NewAccount("Lucas", "lucas@example.com")

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			return store.CreateAccount(ctx, account)
		})
	})
	require.NoError(t, err)
	_, err = store.GetAccountByID(ctx, account.ID)
	assert.NoError(t, err)
}
