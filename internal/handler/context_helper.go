package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/middleware"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

func sessionFromContext(c *gin.Context) models.Session {
	return middleware.SessionFrom(c)
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, key string) (int, error) {
	val, err := strconv.Atoi(c.Param(key))
	if err != nil || val <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+key)
	}
	return val, nil
}

func respondMeta(c *gin.Context) map[string]interface{} {
	return middleware.ExtractMeta(c)
}
