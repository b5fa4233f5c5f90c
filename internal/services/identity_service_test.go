package services_test

import (
	"errors"
	"testing"
	"time"

	"koleksi/internal/models"
	"koleksi/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

func TestIdentityService_IssueAndAuthenticate(t *testing.T) {
	identity := services.NewIdentityService(testJWTSecret, "koleksi-idp", time.Hour)

	token, err := identity.IssueToken(models.Principal{ID: "user-123", Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	principal, err := identity.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.ID)
	assert.Equal(t, "a@example.com", principal.Email)
}

func TestIdentityService_IssueTokenRequiresID(t *testing.T) {
	identity := services.NewIdentityService(testJWTSecret, "", 0)

	_, err := identity.IssueToken(models.Principal{})
	assert.Error(t, err)
}

func TestIdentityService_AuthenticateRejects(t *testing.T) {
	identity := services.NewIdentityService(testJWTSecret, "koleksi-idp", time.Hour)

	sign := func(secret string, claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign("other-secret", jwt.MapClaims{"sub": "u", "iss": "koleksi-idp", "exp": future})},
		{"expired", sign(testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "koleksi-idp", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"no expiry", sign(testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "koleksi-idp"})},
		{"wrong issuer", sign(testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "elsewhere", "exp": future})},
		{"no subject", sign(testJWTSecret, jwt.MapClaims{"iss": "koleksi-idp", "exp": future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.Authenticate(tt.token)
			assert.True(t, errors.Is(err, services.ErrUnauthenticated), "got %v", err)
		})
	}
}
