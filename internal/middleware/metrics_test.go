package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/service"
)

func scrape(t *testing.T, metrics *service.MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/api/v1/"))
	api := r.Group("/api/v1")
	api.POST("/unit-closure/:number/close", func(c *gin.Context) { c.Status(http.StatusPreconditionRequired) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/api/v1/unit-closure/2/close", "/api/v1/unit-closure/3/close"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, target, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/students/12345", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := scrape(t, metrics)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/unit-closure/:number/close",status="428"} 2`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.NotContains(t, body, "/students/12345")
	assert.NotContains(t, body, `path="/metrics"`)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/grading/units/:unitId/activities/:activityId", routeLabel("/api/v1/grading/units/:unitId/activities/:activityId", "/api/v1"))
	assert.Equal(t, "/", routeLabel("/api/v1", "/api/v1"))
	assert.Equal(t, "/ready", routeLabel("/ready", "/api/v1"))
	assert.Equal(t, "/api/v10/x", routeLabel("/api/v10/x", "/api/v1"))
	assert.Equal(t, "/api/v1/x", routeLabel("/api/v1/x", ""))
	assert.Equal(t, unmatchedRoute, routeLabel("", "/api/v1"))
}
