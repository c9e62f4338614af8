package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/pkg/config"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSessionServiceResolve(t *testing.T) {
	svc := NewSessionService(config.JWTConfig{Secret: "secret", Issuer: "school"}, nil)
	teacherID := 9
	token := signToken(t, "secret", models.JWTClaims{
		UserID:    "u-1",
		Role:      "teacher",
		FullName:  "Ana López",
		TeacherID: &teacherID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "school",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	session, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, models.RoleTeacher, session.Role)
	assert.Equal(t, token, session.Token)
	require.NotNil(t, session.TeacherID)
	assert.Equal(t, 9, *session.TeacherID)
	assert.True(t, session.Authenticated())
	assert.False(t, session.IsAdmin())
}

func TestSessionServiceRejects(t *testing.T) {
	svc := NewSessionService(config.JWTConfig{Secret: "secret", Issuer: "school"}, nil)

	expired := signToken(t, "secret", models.JWTClaims{
		UserID:           "u-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "school", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	wrongIssuer := signToken(t, "secret", models.JWTClaims{
		UserID:           "u-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "other"},
	})
	wrongSecret := signToken(t, "nope", models.JWTClaims{
		UserID:           "u-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "school"},
	})
	noSubject := signToken(t, "secret", models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "school"},
	})

	for name, token := range map[string]string{"empty": "", "expired": expired, "issuer": wrongIssuer, "secret": wrongSecret, "subject": noSubject} {
		t.Run(name, func(t *testing.T) {
			session, err := svc.Resolve(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
			assert.Equal(t, models.NoSession, session)
		})
	}
}
