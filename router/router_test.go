package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/handlers"
	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/internal/store/memory"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/middleware"
	"github.com/folio-site/folio-backend/services"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    config.EnvDevelopment,
			AllowedOrigins: []string{"*"},
			Version:        "test",
		},
		Stream: config.StreamConfig{EventBufferSize: 4, PingIntervalSeconds: 30},
	}
	reg := prometheus.NewRegistry()
	repo := memory.NewFeedbackStore()
	broker := events.NewMemoryBroker(cfg.Stream.EventBufferSize, reg)
	t.Cleanup(broker.Close)

	return SetupRouter(Dependencies{
		Config:          cfg,
		FeedbackHandler: handlers.NewFeedbackHandler(repo, broker, nil),
		StreamHandler:   handlers.NewStreamHandler(broker, &cfg.Server, cfg.Stream),
		HealthHandler:   handlers.NewHealthHandler(services.NewHealthService(repo, nil, cfg.Server.Version)),
		HTTPMetrics:     middleware.NewHTTPMetrics(reg),
		Gatherer:        reg,
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFeedbackLifecycle(t *testing.T) {
	for _, prefix := range FeedbackPrefixes {
		t.Run(prefix, func(t *testing.T) {
			r := newTestRouter(t)

			w := do(r, http.MethodPost, prefix, `{"name":"Ada","email":"ada@x.com","message":"hi"}`)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			var created types.Feedback
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			require.NotEmpty(t, created.ID)
			assert.Equal(t, "Ada", created.Name)
			assert.False(t, created.CreatedAt.IsZero())

			w = do(r, http.MethodPost, prefix, `{"name":"Grace","email":"grace@x.com","message":"hello"}`)
			require.Equal(t, http.StatusCreated, w.Code)

			w = do(r, http.MethodGet, prefix, "")
			require.Equal(t, http.StatusOK, w.Code)
			var list []types.Feedback
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
			require.Len(t, list, 2)
			assert.Equal(t, "Grace", list[0].Name)
			assert.Equal(t, created.ID, list[1].ID)

			w = do(r, http.MethodGet, prefix+"/"+created.ID, "")
			require.Equal(t, http.StatusOK, w.Code)

			w = do(r, http.MethodDelete, prefix+"/"+created.ID, "")
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Empty(t, w.Body.String())

			w = do(r, http.MethodGet, prefix+"/"+created.ID, "")
			assert.Equal(t, http.StatusNotFound, w.Code)

			w = do(r, http.MethodDelete, prefix+"/"+created.ID, "")
			assert.Equal(t, http.StatusNoContent, w.Code)
		})
	}
}

func TestSharedStoreAcrossPrefixes(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/feedback", `{"name":"Ada","email":"ada@x.com","message":"hi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []types.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestEmptyListIsArray(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"name":"Ada","message":"hi"}`},
		{"bad email", `{"name":"Ada","email":"nope","message":"hi"}`},
		{"blank name", `{"name":"   ","email":"ada@x.com","message":"hi"}`},
		{"malformed json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/feedback", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := do(r, http.MethodGet, "/feedback", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/feedback", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	allowed := w.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"GET", "POST", "DELETE", "OPTIONS"} {
		assert.Contains(t, allowed, m)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/health/readiness", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health types.HealthCheck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, types.HealthStatusUp, health.Status)

	do(r, http.MethodGet, "/feedback", "")
	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `folio_http_requests_total{method="GET",route="/feedback",status="200"} 1`), w.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/feedback/{id}")
}
