package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/fairu-api/internal/service"
)

func TestMetricsHandlerHealth(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, nil)

	c, w := newTestContext(t, http.MethodGet, "/health", "")
	handler.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestMetricsHandlerReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]ReadinessCheck
		wantStatus int
	}{
		{
			name:       "all dependencies reachable",
			checks:     map[string]ReadinessCheck{"database": func(ctx context.Context) error { return nil }},
			wantStatus: http.StatusOK,
		},
		{
			name: "database down",
			checks: map[string]ReadinessCheck{
				"database": func(ctx context.Context) error { return errors.New("connection refused") },
				"cache":    func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewMetricsHandler(nil, tt.checks, nil)
			c, w := newTestContext(t, http.MethodGet, "/ready", "")
			handler.Ready(c)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestMetricsHandlerReadyHidesFailureCause(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	handler := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"database": func(ctx context.Context) error {
			return errors.New("dial tcp db.internal:5432: password authentication failed for user fairu")
		},
		"cache": func(ctx context.Context) error { return nil },
	}, zap.New(core))

	c, w := newTestContext(t, http.MethodGet, "/ready", "")
	handler.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "db.internal")
	assert.NotContains(t, w.Body.String(), "password")

	body := decodeBody(t, w)
	assert.Equal(t, "unavailable", body["status"])
	checks, ok := body["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "unavailable", checks["database"])
	assert.Equal(t, "ok", checks["cache"])

	entries := logs.FilterMessage("readiness check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "database", entries[0].ContextMap()["check"])
	assert.Contains(t, entries[0].ContextMap()["error"], "db.internal")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), nil, nil)

	c, w := newTestContext(t, http.MethodGet, "/metrics", "")
	handler.Prometheus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fairu_")
}

func TestMetricsHandlerPrometheusWithoutService(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, nil)

	c, w := newTestContext(t, http.MethodGet, "/metrics", "")
	handler.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
