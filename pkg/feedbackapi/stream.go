package feedbackapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/folio-site/folio-backend/types"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Live feed message types.
const (
	EventConnected = "connected"
	EventCreated   = "feedback.created"
	EventDeleted   = "feedback.deleted"
)

// StreamEvent is one live feed message.
type StreamEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Feedback decodes the record carried by a created event.
func (e StreamEvent) Feedback() (types.Feedback, error) {
	var fb types.Feedback
	if e.Type != EventCreated {
		return fb, fmt.Errorf("event %q carries no feedback", e.Type)
	}
	if err := json.Unmarshal(e.Payload, &fb); err != nil {
		return fb, fmt.Errorf("failed to decode feedback payload: %w", err)
	}
	return fb, nil
}

// DeletedID decodes the id carried by a deleted event.
func (e StreamEvent) DeletedID() (string, error) {
	if e.Type != EventDeleted {
		return "", fmt.Errorf("event %q carries no deleted id", e.Type)
	}
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return "", fmt.Errorf("failed to decode deleted payload: %w", err)
	}
	return p.ID, nil
}

// Stream is an open live feed connection.
type Stream struct {
	conn *websocket.Conn
}

// Stream dials the live feed and waits for the server to confirm the
// subscription, so no event published afterwards is missed.
func (c *Client) Stream(ctx context.Context) (*Stream, error) {
	scheme := "ws"
	if c.baseURL.Scheme == "https" {
		scheme = "wss"
	}
	endpoint := c.endpoint(scheme, "stream")

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial live feed: %w", err)
	}

	s := &Stream{conn: conn}
	first, err := s.Next(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if first.Type != EventConnected {
		_ = s.Close()
		return nil, fmt.Errorf("unexpected first live feed message %q", first.Type)
	}
	c.log.Debugw("Live feed connected", "url", endpoint)
	return s, nil
}

// Next blocks until the next message or until ctx is done.
func (s *Stream) Next(ctx context.Context) (StreamEvent, error) {
	var ev StreamEvent
	if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
		return ev, fmt.Errorf("failed to read live feed: %w", err)
	}
	return ev, nil
}

// Close ends the connection with a normal closure.
func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
