package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", digest, "the digest must never contain the plain secret")

	assert.True(t, hasher.Verify("1234", digest))
	assert.False(t, hasher.Verify("4321", digest))
}

func TestBcryptHasher_DistinctDigestsForSameSecret(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("1234")
	require.NoError(t, err)
	second, err := hasher.Hash("1234")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "bcrypt salts every digest")
}

func TestNewBcryptHasher_OutOfRangeCostFallsBack(t *testing.T) {
	hasher := NewBcryptHasher(100)

	digest, err := hasher.Hash("1234")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
