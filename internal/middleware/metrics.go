package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/service"
)

// unmatchedRoute labels requests no route answered, keeping raw paths out of the label set.
const unmatchedRoute = "unmatched"

// Metrics observes every request under its route template. Routes registered below
// apiPrefix are labelled without it, so /api/v1/unit-closure/:number/close becomes
// /unit-closure/:number/close. Prometheus scrapes are not observed.
func Metrics(metricsSvc *service.MetricsService, apiPrefix string) gin.HandlerFunc {
	apiPrefix = strings.TrimRight(apiPrefix, "/")
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := routeLabel(c.FullPath(), apiPrefix)
		if route == "/metrics" {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(fullPath, apiPrefix string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	if apiPrefix == "" {
		return fullPath
	}
	if fullPath == apiPrefix {
		return "/"
	}
	if strings.HasPrefix(fullPath, apiPrefix+"/") {
		return strings.TrimPrefix(fullPath, apiPrefix)
	}
	return fullPath
}
