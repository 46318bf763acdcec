package identity_test

import (
	"testing"

	identity "github.com/photoflow/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("produces a verifiable digest", func(t *testing.T) {
		digest := testPasswordHash()

		assert.NoError(t, identity.ComparePasswordAndHash("password123", digest))
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		_, err := identity.HashPassword("")
		assert.Error(t, err)
	})

	t.Run("salts each digest", func(t *testing.T) {
		first, err := identity.HashPassword("same-plaintext")
		require.NoError(t, err)
		second, err := identity.HashPassword("same-plaintext")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.NoError(t, identity.ComparePasswordAndHash("same-plaintext", first))
		assert.NoError(t, identity.ComparePasswordAndHash("same-plaintext", second))
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	digest := testPasswordHash()

	t.Run("mismatch returns credential mismatch", func(t *testing.T) {
		err := identity.ComparePasswordAndHash("wrong-password", digest)

		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeCredentialMismatch))
	})

	t.Run("malformed digest is a distinct error", func(t *testing.T) {
		err := identity.ComparePasswordAndHash("password123", "not-a-bcrypt-digest")

		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeCorruptDigest))
		assert.False(t, identity.HasTextCode(err, identity.TextCodeCredentialMismatch))
	})
}
