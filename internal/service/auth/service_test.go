package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/service/session"
)

type resolverStub struct {
	resolveFunc func(ctx context.Context, token string) (*domain.Account, domain.Session, error)
	calls       int
}

func (r *resolverStub) Resolve(ctx context.Context, token string) (*domain.Account, domain.Session, error) {
	r.calls++
	return r.resolveFunc(ctx, token)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticateReturnsPrincipal(t *testing.T) {
	stub := &resolverStub{resolveFunc: func(_ context.Context, token string) (*domain.Account, domain.Session, error) {
		require.Equal(t, "tok", token)
		return &domain.Account{ID: "acc-1"}, domain.Session{AccountID: "acc-1", TokenDigest: "d"}, nil
	}}
	guard := New(stub, newLogger())

	principal, err := guard.Authenticate(context.Background(), "  tok ")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", principal.Account.ID)
	assert.Equal(t, "tok", principal.Token)
	assert.Equal(t, "d", principal.Session.TokenDigest)
}

func TestAuthenticateEmptyTokenSkipsResolver(t *testing.T) {
	stub := &resolverStub{}
	guard := New(stub, newLogger())

	_, err := guard.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, stub.calls)
}

func TestAuthenticatePropagatesResolverErrors(t *testing.T) {
	storeErr := errors.New("connection reset")
	for name, want := range map[string]error{
		"revoked": session.ErrInvalidToken,
		"store":   storeErr,
	} {
		t.Run(name, func(t *testing.T) {
			stub := &resolverStub{resolveFunc: func(context.Context, string) (*domain.Account, domain.Session, error) {
				return nil, domain.Session{}, want
			}}
			_, err := New(stub, newLogger()).Authenticate(context.Background(), "tok")
			assert.ErrorIs(t, err, want)
		})
	}
}
