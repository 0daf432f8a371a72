package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devasol/dlms-backend/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	pair, err := GenerateTokenPair(userID, "citizen@example.com", models.RoleCitizen)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Greater(t, pair.ExpiresIn, int64(0))

	claims, err := ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "citizen@example.com", claims.Email)
	assert.Equal(t, models.RoleCitizen, claims.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	pair, err := GenerateTokenPair(uuid.New(), "citizen@example.com", models.RoleCitizen)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken + "x")
	assert.Error(t, err)
}
