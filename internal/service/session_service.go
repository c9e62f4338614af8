package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/pkg/config"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

// SessionService turns access tokens issued by the school backend into sessions.
type SessionService struct {
	config config.JWTConfig
	logger *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(cfg config.JWTConfig, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{config: cfg, logger: logger}
}

// Resolve validates the token and returns the session it identifies.
func (s *SessionService) Resolve(tokenString string) (models.Session, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return models.NoSession, appErrors.ErrUnauthorized
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if len(s.config.Secret) == 0 {
			return nil, fmt.Errorf("jwt secret not configured")
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return models.NoSession, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return models.NoSession, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return models.NoSession, appErrors.Clone(appErrors.ErrUnauthorized, "token has no subject")
	}

	return models.Session{
		UserID:    userID,
		Role:      models.UserRole(strings.ToUpper(string(claims.Role))),
		FullName:  claims.FullName,
		TeacherID: claims.TeacherID,
		Token:     tokenString,
	}, nil
}
