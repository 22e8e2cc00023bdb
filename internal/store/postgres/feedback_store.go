// Package postgres implements the FeedbackRepository directly on PostgreSQL
// through pgx, for deployments that run their own database instead of Supabase.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ store.FeedbackRepository = (*FeedbackStore)(nil)

// DBTX is the subset of pgxpool.Pool used by the store. pgxmock pools satisfy it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// FeedbackStore implements store.FeedbackRepository using PostgreSQL.
type FeedbackStore struct {
	db    DBTX
	table string
}

// NewFeedbackStore creates a FeedbackStore for the given table.
func NewFeedbackStore(db DBTX, table string) *FeedbackStore {
	return &FeedbackStore{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

func (s *FeedbackStore) Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, email, message)
		VALUES ($1, $2, $3)
		RETURNING id::text, name, email, message, created_at`, s.table)

	created := &types.Feedback{}
	err := s.db.QueryRow(ctx, query, fb.Name, fb.Email, fb.Message).Scan(
		&created.ID,
		&created.Name,
		&created.Email,
		&created.Message,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating feedback: %w", err)
	}
	return created, nil
}

func (s *FeedbackStore) List(ctx context.Context) ([]types.Feedback, error) {
	query := fmt.Sprintf(`
		SELECT id::text, name, email, message, created_at
		FROM %s
		ORDER BY created_at DESC, id DESC`, s.table)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}
	defer rows.Close()

	items := make([]types.Feedback, 0)
	for rows.Next() {
		var fb types.Feedback
		if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Message, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning feedback: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return items, nil
}

// Get returns store.ErrNotFound for unknown ids and for ids that are not UUIDs,
// since no row can carry one.
func (s *FeedbackStore) Get(ctx context.Context, id string) (*types.Feedback, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}

	query := fmt.Sprintf(`
		SELECT id::text, name, email, message, created_at
		FROM %s
		WHERE id = $1`, s.table)

	fb := &types.Feedback{}
	err := s.db.QueryRow(ctx, query, id).Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Message, &fb.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error getting feedback: %w", err)
	}
	return fb, nil
}

// Delete succeeds whether or not a row matched.
func (s *FeedbackStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("error deleting feedback: %w", err)
	}
	return nil
}

func (s *FeedbackStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
