package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// UserClaims represents the JWT claims for user authentication.
// TenantID/TenantSlug/TenantRole describe the tenant the session is currently
// bound to; they are only set after the caller selects a tenant.
type UserClaims struct {
	Email      string `json:"email"`
	UserID     uint   `json:"user_id"`
	Role       string `json:"role,omitempty"` // Global platform role
	TenantID   *uint  `json:"tenant_id,omitempty"`
	TenantSlug string `json:"tenant_slug,omitempty"`
	TenantRole string `json:"tenant_role,omitempty"` // User's role within the bound tenant
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
	}
}

// GenerateToken creates a JWT token with user information only
func (j *JWTUtil) GenerateToken(email string, userID uint, role string) (string, error) {
	return j.GenerateTokenWithTenant(email, userID, role, nil, "", "")
}

// GenerateTokenWithTenant creates a JWT token bound to a tenant
func (j *JWTUtil) GenerateTokenWithTenant(email string, userID uint, role string, tenantID *uint, tenantSlug string, tenantRole string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := UserClaims{
		Email:      email,
		UserID:     userID,
		Role:       role,
		TenantID:   tenantID,
		TenantSlug: tenantSlug,
		TenantRole: tenantRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
