package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPassword("super-secret-1")
	require.NoError(t, err)
	require.NotEmpty(t, passwordHash)
	assert.True(t, strings.HasPrefix(passwordHash, "$2a$14$"))

	assert.True(t, CheckPasswordHash("super-secret-1", passwordHash))
	assert.False(t, CheckPasswordHash("super-secret-2", passwordHash))
	assert.False(t, CheckPasswordHash("super-secret-1", "not-a-bcrypt-hash"))
}
