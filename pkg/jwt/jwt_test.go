package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute)

	token, err := service.GenerateAccessToken("user-1", []string{"farmer"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, []string{"farmer"}, claims.Roles)
	assert.Equal(t, "agrisetu-marketplace", claims.Issuer)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	issuer := NewService("secret-a", 15*time.Minute)
	validator := NewService("secret-b", 15*time.Minute)

	token, err := issuer.GenerateAccessToken("user-1", []string{"farmer"})
	require.NoError(t, err)

	claims, err := validator.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	service := NewService("test-secret", -time.Minute)

	token, err := service.GenerateAccessToken("user-1", []string{"farmer"})
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute)

	claims, err := service.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestIsTokenExpired(t *testing.T) {
	fresh := NewService("test-secret", 15*time.Minute)
	stale := NewService("test-secret", -time.Minute)

	freshToken, err := fresh.GenerateAccessToken("user-1", nil)
	require.NoError(t, err)
	staleToken, err := stale.GenerateAccessToken("user-1", nil)
	require.NoError(t, err)

	assert.False(t, fresh.IsTokenExpired(freshToken))
	assert.True(t, fresh.IsTokenExpired(staleToken))
	assert.True(t, fresh.IsTokenExpired("garbage"))
}
