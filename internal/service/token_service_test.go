package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

func signTestToken(t *testing.T, method jwt.SigningMethod, secret string, claims models.JWTClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func validClaims(role models.UserRole) models.JWTClaims {
	return models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "studymate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "studymate"})

	claims, err := svc.ValidateToken(signTestToken(t, jwt.SigningMethodHS256, "secret", validClaims(models.RoleTutor)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTutor, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "studymate"})

	expired := validClaims(models.RoleStudent)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims(models.RoleStudent)
	wrongIssuer.Issuer = "someone-else"

	noUser := validClaims(models.RoleStudent)
	noUser.UserID = ""

	cases := map[string]string{
		"wrong secret": signTestToken(t, jwt.SigningMethodHS256, "other", validClaims(models.RoleStudent)),
		"wrong alg":    signTestToken(t, jwt.SigningMethodHS512, "secret", validClaims(models.RoleStudent)),
		"expired":      signTestToken(t, jwt.SigningMethodHS256, "secret", expired),
		"issuer":       signTestToken(t, jwt.SigningMethodHS256, "secret", wrongIssuer),
		"no user":      signTestToken(t, jwt.SigningMethodHS256, "secret", noUser),
		"bad role":     signTestToken(t, jwt.SigningMethodHS256, "secret", validClaims("GUEST")),
		"garbage":      "not-a-token",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(raw)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized), "got %v", err)
		})
	}
}
