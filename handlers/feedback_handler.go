package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/folio-site/folio-backend/errors"
	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// NotificationQueue accepts owner notifications for background delivery.
type NotificationQueue interface {
	Enqueue(fb types.Feedback) bool
}

// FeedbackHandler maps the feedback routes onto a FeedbackRepository.
// Each request is one store call; publishing and notification never change
// the response.
type FeedbackHandler struct {
	repo          store.FeedbackRepository
	broker        events.Broker
	notifications NotificationQueue
	log           *zap.SugaredLogger
}

// NewFeedbackHandler creates a FeedbackHandler. broker and notifications may be nil.
func NewFeedbackHandler(repo store.FeedbackRepository, broker events.Broker, notifications NotificationQueue) *FeedbackHandler {
	return &FeedbackHandler{
		repo:          repo,
		broker:        broker,
		notifications: notifications,
		log:           logger.GetLogger().Named("feedback_handler"),
	}
}

// CreateFeedback godoc
// @Summary      Submit feedback
// @Description  Stores a visitor message. The store assigns id and created_at.
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      types.FeedbackCreate  true  "Feedback payload"
// @Success      201   {object}  types.Feedback
// @Failure      400   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /feedback [post]
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req types.FeedbackCreate
	if !bindJSONOrError(c, &req) {
		return
	}

	req.Normalize()
	if req.Name == "" {
		_ = c.Error(errors.ValidationFailed("validation_failed", "name must not be blank"))
		return
	}
	if req.Message == "" {
		_ = c.Error(errors.ValidationFailed("validation_failed", "message must not be blank"))
		return
	}

	created, err := h.repo.Create(c.Request.Context(), req.ToFeedback())
	if err != nil {
		_ = c.Error(errors.StoreFailed("create", err))
		return
	}

	h.log.Infow("Feedback stored", "id", created.ID, "email", logger.MaskEmail(created.Email))

	if event, err := events.NewFeedbackCreated(*created); err == nil {
		h.publish(c, event)
	} else {
		h.log.Warnw("Failed to build created event", "id", created.ID, "error", err)
	}
	if h.notifications != nil && !h.notifications.Enqueue(*created) {
		h.log.Warnw("Owner notification dropped", "id", created.ID)
	}

	c.JSON(http.StatusCreated, created)
}

// ListFeedback godoc
// @Summary      List feedback
// @Description  Returns every stored message, newest first.
// @Tags         feedback
// @Produce      json
// @Success      200  {array}   types.Feedback
// @Failure      500  {object}  types.ErrorResponse
// @Router       /feedback [get]
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.StoreFailed("list", err))
		return
	}
	if items == nil {
		items = []types.Feedback{}
	}
	c.JSON(http.StatusOK, items)
}

// GetFeedback godoc
// @Summary      Get feedback
// @Tags         feedback
// @Produce      json
// @Param        id   path      string  true  "Feedback ID"
// @Success      200  {object}  types.Feedback
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /feedback/{id} [get]
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := feedbackID(c)
	if !ok {
		return
	}

	fb, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			_ = c.Error(errors.NotFound("Feedback", id))
			return
		}
		_ = c.Error(errors.StoreFailed("get", err))
		return
	}
	c.JSON(http.StatusOK, fb)
}

// DeleteFeedback godoc
// @Summary      Delete feedback
// @Description  Removes a message. Unknown ids succeed as the store does.
// @Tags         feedback
// @Param        id   path  string  true  "Feedback ID"
// @Success      204
// @Failure      400  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /feedback/{id} [delete]
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, ok := feedbackID(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(errors.StoreFailed("delete", err))
		return
	}

	if event, err := events.NewFeedbackDeleted(id); err == nil {
		h.publish(c, event)
	}

	c.Status(http.StatusNoContent)
}

func (h *FeedbackHandler) publish(c *gin.Context, event events.Event) {
	if h.broker == nil {
		return
	}
	if err := h.broker.Publish(c.Request.Context(), event); err != nil {
		h.log.Warnw("Failed to publish feedback event",
			"type", event.Type,
			"request_id", c.GetString("request_id"),
			"error", err)
	}
}

// feedbackID reads the :id path parameter, rejecting blank values.
func feedbackID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		_ = c.Error(errors.ValidationFailed("invalid_id", "id must not be blank"))
		return "", false
	}
	return id, true
}

func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(errors.ValidationFailed("invalid_request_payload", validationMessage(err)))
		return false
	}
	return true
}

// validationMessage turns validator errors into one readable line per field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
