// internal/members/password_test.go
package members

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt, err := hashPassword("SecurePass123!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := verifyPassword("SecurePass123!", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("WrongPassword", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUniqueSalt(t *testing.T) {
	hash1, salt1, err := hashPassword("SecurePass123!")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("SecurePass123!")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyPasswordRejectsMalformedInput(t *testing.T) {
	_, err := verifyPassword("password", "not-base64!!", "aGFzaA==")
	assert.Error(t, err)

	_, err = verifyPassword("password", "c2FsdA==", "not-base64!!")
	assert.Error(t, err)
}
