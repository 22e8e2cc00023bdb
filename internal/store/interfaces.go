package store

import (
	"context"

	"github.com/folio-site/folio-backend/types"
)

// FeedbackRepository is the capability the gateway forwards to. Each method is
// exactly one round trip to the backing store.
type FeedbackRepository interface {
	// Create persists fb and returns the stored record with ID and CreatedAt set.
	Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error)
	// List returns every record ordered by CreatedAt, newest first.
	List(ctx context.Context) ([]types.Feedback, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Feedback, error)
	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by repositories that can report store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
