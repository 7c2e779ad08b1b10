package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil(hours int) *JWTUtil {
	return NewJWTUtil(&JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: hours,
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	util := newTestUtil(1)

	token, err := util.GenerateToken("user@example.com", 42, "user")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Nil(t, claims.TenantID)
	assert.Empty(t, claims.TenantSlug)
}

func TestTokenCarriesTenantBinding(t *testing.T) {
	util := newTestUtil(1)

	tenantID := uint(7)
	token, err := util.GenerateTokenWithTenant("user@example.com", 42, "user", &tenantID, "acme", "admin")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)

	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
	assert.Equal(t, "acme", claims.TenantSlug)
	assert.Equal(t, "admin", claims.TenantRole)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := newTestUtil(1).GenerateToken("user@example.com", 42, "user")
	require.NoError(t, err)

	other := NewJWTUtil(&JWTConfig{SigningKey: "another-key", ExpirationHours: 1})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	util := newTestUtil(-1)

	token, err := util.GenerateToken("user@example.com", 42, "user")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newTestUtil(1).ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	util := NewJWTUtil(nil)

	_, err := util.GenerateToken("user@example.com", 1, "user")
	assert.Error(t, err)

	_, err = util.ValidateToken("whatever")
	assert.Error(t, err)
}
