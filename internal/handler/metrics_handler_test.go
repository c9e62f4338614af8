package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return nil },
	})
	c, w := newContext(http.MethodGet, "/ready", nil, models.NoSession, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newContext(http.MethodGet, "/ready", nil, models.NoSession, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/assignments", http.StatusOK, 0)
	h := NewMetricsHandler(metrics, nil)
	c, w := newContext(http.MethodGet, "/metrics", nil, models.NoSession, nil)

	h.Prometheus(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
