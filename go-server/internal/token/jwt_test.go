package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Configure([]byte("test-secret"))

	userID := uuid.New()
	tokenStr, err := GenerateToken(userID)
	require.NoError(t, err)

	claims, err := ValidateToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestValidateToken_Garbage(t *testing.T) {
	Configure([]byte("test-secret"))

	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	Configure([]byte("secret-a"))
	tokenStr, err := GenerateToken(uuid.New())
	require.NoError(t, err)

	Configure([]byte("secret-b"))
	_, err = ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestGenerateToken_Unconfigured(t *testing.T) {
	Configure(nil)

	_, err := GenerateToken(uuid.New())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
