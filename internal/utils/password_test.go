package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secure-password-1")
	require.NoError(t, err)
	assert.NotEqual(t, "secure-password-1", hash)

	assert.True(t, CheckPasswordHash("secure-password-1", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
}

func TestCheckPasswordHashGarbage(t *testing.T) {
	assert.False(t, CheckPasswordHash("whatever", "not-a-bcrypt-hash"))
}
