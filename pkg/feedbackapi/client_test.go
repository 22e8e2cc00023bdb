package feedbackapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/handlers"
	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/internal/store/memory"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/router"
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

// newGateway serves the real router on an in-memory store.
func newGateway(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: config.EnvDevelopment, Version: "test"},
		Stream: config.StreamConfig{EventBufferSize: 8, PingIntervalSeconds: 30},
	}
	reg := prometheus.NewRegistry()
	repo := memory.NewFeedbackStore()
	broker := events.NewMemoryBroker(cfg.Stream.EventBufferSize, reg)

	engine := router.SetupRouter(router.Dependencies{
		Config:          cfg,
		FeedbackHandler: handlers.NewFeedbackHandler(repo, broker, nil),
		StreamHandler:   handlers.NewStreamHandler(broker, &cfg.Server, cfg.Stream),
		HealthHandler:   handlers.NewHealthHandler(services.NewHealthService(repo, nil, "test")),
		Gatherer:        reg,
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	t.Cleanup(broker.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(baseURL)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = NewClient("https://example.com/api/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/feedback/abc", c.endpoint("", "abc"))
	assert.Equal(t, "wss://example.com/api/feedback/stream", c.endpoint("wss", "stream"))

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
	_, err = NewClient("://bad")
	assert.Error(t, err)
}

func TestClientCRUD(t *testing.T) {
	srv := newGateway(t)
	ctx := context.Background()

	for _, base := range []string{srv.URL, srv.URL + "/api"} {
		c := newTestClient(t, base)

		created, err := c.Create(ctx, types.FeedbackCreate{Name: "Ada", Email: "ada@x.com", Message: "hi"})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "Ada", created.Name)

		list, err := c.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, created.ID, list[0].ID)

		got, err := c.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Message, got.Message)

		require.NoError(t, c.Delete(ctx, created.ID))

		_, err = c.Get(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	}
}

func TestClientValidationError(t *testing.T) {
	srv := newGateway(t)
	c := newTestClient(t, srv.URL)

	_, err := c.Create(context.Background(), types.FeedbackCreate{Name: "Ada", Email: "not-an-email", Message: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, IsNotFound(err))

	_, err = c.Get(context.Background(), " ")
	assert.Error(t, err)
	assert.Error(t, c.Delete(context.Background(), ""))
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClientEmptyList(t *testing.T) {
	srv := newGateway(t)

	list, err := newTestClient(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStream(t *testing.T) {
	srv := newGateway(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Stream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	created, err := c.Create(ctx, types.FeedbackCreate{Name: "Grace", Email: "grace@x.com", Message: "hello"})
	require.NoError(t, err)

	ev, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, EventCreated, ev.Type)
	fb, err := ev.Feedback()
	require.NoError(t, err)
	assert.Equal(t, created.ID, fb.ID)

	require.NoError(t, c.Delete(ctx, created.ID))
	ev, err = stream.Next(ctx)
	require.NoError(t, err)
	id, err := ev.DeletedID()
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = ev.Feedback()
	assert.Error(t, err)
}
