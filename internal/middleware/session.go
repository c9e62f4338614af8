package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved models.Session.
const ContextSessionKey = "currentSession"

type sessionResolver interface {
	Resolve(token string) (models.Session, error)
}

// Session protects routes by requiring a bearer token the school backend issued.
func Session(resolver sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or invalid authorization header"))
			c.Abort()
			return
		}

		session, err := resolver.Resolve(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session attached by Session, or models.NoSession.
func SessionFrom(c *gin.Context) models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return models.NoSession
	}
	session, ok := value.(models.Session)
	if !ok {
		return models.NoSession
	}
	return session
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
