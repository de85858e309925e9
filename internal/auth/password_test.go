package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret-enough")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-enough", hash)

	assert.NoError(t, VerifyPassword(hash, "s3cret-enough"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrBadCredentials)
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
