package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

// RequireRoles rejects sessions whose role is not listed. SUPERADMIN passes wherever ADMIN does.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	for _, r := range roles {
		allowed[r] = struct{}{}
		if r == models.RoleAdmin {
			allowed[models.RoleSuperAdmin] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if !session.Authenticated() {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[session.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
