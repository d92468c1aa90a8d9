package credential

import (
	"errors"
	"strings"
	"testing"

	"github.com/centry-onboarding/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash_RoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest, err := h.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", digest)

	ok, err := h.Verify("1234", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHash_SaltedPerValue(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("secret")
	require.NoError(t, err)
	b, err := h.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Mismatch(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest, err := h.Hash("1234")
	require.NoError(t, err)

	ok, err := h.Verify("4321", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedDigest_IsError(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	ok, err := h.Verify("1234", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domain.ErrHashing))
}

func TestHash_TooLong_IsHashingFailure(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrHashing))
}

func TestNewHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
