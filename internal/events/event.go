// Package events fans feedback changes out to live-feed subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folio-site/folio-backend/types"
	"github.com/google/uuid"
)

// EventType names a change to the feedback collection.
type EventType string

const (
	EventTypeFeedbackCreated EventType = "feedback.created"
	EventTypeFeedbackDeleted EventType = "feedback.deleted"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "folio:feedback"

// Event is the message pushed to stream clients.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DeletedPayload is the payload of a feedback.deleted event.
type DeletedPayload struct {
	ID string `json:"id"`
}

// Validate checks the fields every broker relies on.
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if len(e.Payload) == 0 {
		return fmt.Errorf("event payload is required")
	}
	return nil
}

// NewFeedbackCreated builds the event announcing a stored submission.
func NewFeedbackCreated(fb types.Feedback) (Event, error) {
	return newEvent(EventTypeFeedbackCreated, fb)
}

// NewFeedbackDeleted builds the event announcing a removed submission.
func NewFeedbackDeleted(id string) (Event, error) {
	return newEvent(EventTypeFeedbackDeleted, DeletedPayload{ID: id})
}

func newEvent(eventType EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Broker publishes events and hands out subscriptions. The returned cancel
// function ends the subscription and closes its channel; it is safe to call twice.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}
