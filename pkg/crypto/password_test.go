package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("red12345!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "red12345!"))
	assert.ErrorIs(t, ComparePassword(hash, "red12345"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashDefaultCost(t *testing.T) {
	hash, err := HashPassword("red12345!", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(""))
	assert.Len(t, Digest("token"), 64)
	assert.Equal(t, Digest("token"), Digest("token"))
	assert.NotEqual(t, Digest("token"), Digest("token2"))
}
