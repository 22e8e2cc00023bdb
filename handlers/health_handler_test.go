package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/folio-site/folio-backend/services"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name            string
		pingErr         error
		path            string
		expectedStatus  int
		expectedOverall types.HealthStatus
	}{
		{"liveness", nil, "/health/liveness", http.StatusOK, ""},
		{"readiness up", nil, "/health/readiness", http.StatusOK, types.HealthStatusUp},
		{"readiness down", errors.New("unreachable"), "/health/readiness", http.StatusServiceUnavailable, types.HealthStatusDown},
		{"detailed down still 200", errors.New("unreachable"), "/health", http.StatusOK, types.HealthStatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService(stubPinger{err: tt.pingErr}, nil, "test").WithStoreDriver("memory"))
			r := gin.New()
			r.GET("/health", h.DetailedHealth)
			r.GET("/health/liveness", h.LivenessCheck)
			r.GET("/health/readiness", h.ReadinessCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			if tt.expectedOverall != "" {
				var health types.HealthCheck
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
				assert.Equal(t, tt.expectedOverall, health.Status)
				assert.Equal(t, "test", health.Version)
				assert.Equal(t, "memory", health.Components[types.HealthComponentStore].Driver)
			}
		})
	}
}
