package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/middleware"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

func setupFeedbackRouter(h *FeedbackHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/feedback", h.CreateFeedback)
	r.GET("/feedback", h.ListFeedback)
	r.GET("/feedback/:id", h.GetFeedback)
	r.DELETE("/feedback/:id", h.DeleteFeedback)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var storedAda = &types.Feedback{
	ID:        "f-1",
	Name:      "Ada",
	Email:     "ada@x.io",
	Message:   "Hi",
	CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
}

func TestFeedbackHandler_Create(t *testing.T) {
	repo := new(MockFeedbackRepository)
	queue := new(MockNotificationQueue)
	broker := events.NewMemoryBroker(4, nil)
	feed, cancel, err := broker.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	repo.On("Create", mock.Anything, &types.Feedback{Name: "Ada", Email: "ada@x.io", Message: "Hi"}).
		Return(storedAda, nil)
	queue.On("Enqueue", *storedAda).Return(true)

	r := setupFeedbackRouter(NewFeedbackHandler(repo, broker, queue))
	w := doJSON(r, http.MethodPost, "/feedback", map[string]string{
		"name":       "  Ada ",
		"email":      "ada@x.io",
		"message":    "Hi\n",
		"id":         "client-chosen",
		"created_at": "1999-01-01T00:00:00Z",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var got types.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, *storedAda, got)

	select {
	case event := <-feed:
		assert.Equal(t, events.EventTypeFeedbackCreated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a created event")
	}

	repo.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestFeedbackHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		wantDetails string
	}{
		{"missing name", map[string]string{"email": "ada@x.io", "message": "Hi"}, "name is required"},
		{"invalid email", map[string]string{"name": "Ada", "email": "not-an-email", "message": "Hi"}, "email must be a valid email address"},
		{"oversized message", map[string]string{"name": "Ada", "email": "ada@x.io", "message": strings.Repeat("x", 1001)}, "message must be at most 1000 characters"},
		{"oversized name", map[string]string{"name": strings.Repeat("n", 101), "email": "ada@x.io", "message": "Hi"}, "name must be at most 100 characters"},
		{"blank name", map[string]string{"name": "   ", "email": "ada@x.io", "message": "Hi"}, "name must not be blank"},
		{"blank message", map[string]string{"name": "Ada", "email": "ada@x.io", "message": " \t "}, "message must not be blank"},
		{"malformed json", `{"name":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockFeedbackRepository)
			r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, nil))

			w := doJSON(r, http.MethodPost, "/feedback", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Type)
			if tt.wantDetails != "" {
				assert.Contains(t, resp.Details, tt.wantDetails)
			}
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestFeedbackHandler_CreateStoreError(t *testing.T) {
	repo := new(MockFeedbackRepository)
	queue := new(MockNotificationQueue)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("permission denied for table feedback"))

	r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, queue))
	w := doJSON(r, http.MethodPost, "/feedback", map[string]string{"name": "Ada", "email": "ada@x.io", "message": "Hi"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "STORE_ERROR", resp.Type)
	assert.Equal(t, "Failed to create feedback", resp.Message)
	assert.Equal(t, "permission denied for table feedback", resp.Details)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestFeedbackHandler_CreateNotificationDropped(t *testing.T) {
	repo := new(MockFeedbackRepository)
	queue := new(MockNotificationQueue)
	repo.On("Create", mock.Anything, mock.Anything).Return(storedAda, nil)
	queue.On("Enqueue", mock.Anything).Return(false)

	r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, queue))
	w := doJSON(r, http.MethodPost, "/feedback", map[string]string{"name": "Ada", "email": "ada@x.io", "message": "Hi"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFeedbackHandler_List(t *testing.T) {
	newer := types.Feedback{ID: "b", Name: "Grace", Email: "g@x.io", Message: "Hello", CreatedAt: storedAda.CreatedAt.Add(time.Hour)}

	tests := []struct {
		name       string
		result     []types.Feedback
		err        error
		wantStatus int
		wantBody   string
	}{
		{"items", []types.Feedback{newer, *storedAda}, nil, http.StatusOK, ""},
		{"nil becomes empty array", nil, nil, http.StatusOK, "[]"},
		{"store error", nil, errors.New("timeout"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockFeedbackRepository)
			repo.On("List", mock.Anything).Return(tt.result, tt.err)

			r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, nil))
			w := doJSON(r, http.MethodGet, "/feedback", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.err == nil && len(tt.result) > 0 {
				var got []types.Feedback
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.result, got)
			}
		})
	}
}

func TestFeedbackHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(repo *MockFeedbackRepository)
		wantStatus int
		wantType   string
	}{
		{
			name: "found",
			path: "/feedback/f-1",
			setup: func(repo *MockFeedbackRepository) {
				repo.On("Get", mock.Anything, "f-1").Return(storedAda, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/feedback/missing",
			setup: func(repo *MockFeedbackRepository) {
				repo.On("Get", mock.Anything, "missing").Return(nil, store.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantType:   "NOT_FOUND",
		},
		{
			name: "store error",
			path: "/feedback/f-1",
			setup: func(repo *MockFeedbackRepository) {
				repo.On("Get", mock.Anything, "f-1").Return(nil, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantType:   "STORE_ERROR",
		},
		{
			name:       "blank id",
			path:       "/feedback/%20",
			setup:      func(repo *MockFeedbackRepository) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockFeedbackRepository)
			tt.setup(repo)

			r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, nil))
			w := doJSON(r, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeError(t, w).Type)
			} else {
				var got types.Feedback
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *storedAda, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestFeedbackHandler_Delete(t *testing.T) {
	repo := new(MockFeedbackRepository)
	broker := events.NewMemoryBroker(4, nil)
	feed, cancel, err := broker.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	repo.On("Delete", mock.Anything, "f-1").Return(nil)

	r := setupFeedbackRouter(NewFeedbackHandler(repo, broker, nil))
	w := doJSON(r, http.MethodDelete, "/feedback/f-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	select {
	case event := <-feed:
		assert.Equal(t, events.EventTypeFeedbackDeleted, event.Type)
		assert.JSONEq(t, `{"id":"f-1"}`, string(event.Payload))
	case <-time.After(time.Second):
		t.Fatal("expected a deleted event")
	}
	repo.AssertExpectations(t)
}

func TestFeedbackHandler_DeleteErrors(t *testing.T) {
	repo := new(MockFeedbackRepository)
	repo.On("Delete", mock.Anything, "f-1").Return(errors.New("boom"))
	r := setupFeedbackRouter(NewFeedbackHandler(repo, nil, nil))

	w := doJSON(r, http.MethodDelete, "/feedback/f-1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete feedback", decodeError(t, w).Message)

	w = doJSON(r, http.MethodDelete, "/feedback/%20%20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackHandler_PublishFailureDoesNotFailRequest(t *testing.T) {
	repo := new(MockFeedbackRepository)
	repo.On("Delete", mock.Anything, "f-1").Return(nil)

	broker := events.NewMemoryBroker(4, nil)
	broker.Close()

	r := setupFeedbackRouter(NewFeedbackHandler(repo, broker, nil))
	w := doJSON(r, http.MethodDelete, "/feedback/f-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
