// Package supabase implements the FeedbackRepository on the Supabase PostgREST
// API. Every method is a single call through the supabase-go client.
package supabase

import (
	"context"
	"fmt"

	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

var _ store.FeedbackRepository = (*FeedbackStore)(nil)

// FeedbackStore forwards CRUD calls to one Supabase table.
type FeedbackStore struct {
	client *supabase.Client
	table  string
	log    *zap.SugaredLogger
}

// insertRow is the payload sent on create. id and created_at are left to the
// table defaults.
type insertRow struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// NewClient builds a supabase-go client for the project URL and API key.
func NewClient(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}

// NewFeedbackStore creates a store bound to table.
func NewFeedbackStore(client *supabase.Client, table string) *FeedbackStore {
	return &FeedbackStore{
		client: client,
		table:  table,
		log:    logger.GetLogger().Named("supabase_store"),
	}
}

// Create inserts one row and returns the representation the store sends back.
func (s *FeedbackStore) Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := insertRow{Name: fb.Name, Email: fb.Email, Message: fb.Message}

	var created []types.Feedback
	_, err := s.client.From(s.table).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&created)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("insert: store returned no rows")
	}

	s.log.Debugw("Feedback inserted", "id", created[0].ID, "email", logger.MaskEmail(created[0].Email))
	return &created[0], nil
}

// List selects every row ordered by created_at descending.
func (s *FeedbackStore) List(ctx context.Context) ([]types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]types.Feedback, 0)
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&items)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return items, nil
}

// Get selects the row with the given id. An empty result maps to store.ErrNotFound.
func (s *FeedbackStore) Get(ctx context.Context, id string) (*types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []types.Feedback
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteTo(&items)
	if err != nil {
		return nil, fmt.Errorf("select by id: %w", err)
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return &items[0], nil
}

// Delete removes the row with the given id.
func (s *FeedbackStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Execute rather than ExecuteTo: a minimal delete has an empty body.
	_, _, err := s.client.From(s.table).
		Delete("minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Ping issues a one-row select to confirm the table is reachable.
func (s *FeedbackStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := s.client.From(s.table).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	return err
}
