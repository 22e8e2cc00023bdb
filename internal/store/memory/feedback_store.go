// Package memory provides a process-local FeedbackRepository used for local
// development and end-to-end tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/types"
	"github.com/google/uuid"
)

var _ store.FeedbackRepository = (*FeedbackStore)(nil)

// FeedbackStore keeps records in a map guarded by a RWMutex. It assigns ids and
// creation timestamps the way the hosted store does.
type FeedbackStore struct {
	mu     sync.RWMutex
	items  map[string]types.Feedback
	now    func() time.Time
	lastTS time.Time
}

// NewFeedbackStore creates an empty store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		items: make(map[string]types.Feedback),
		now:   time.Now,
	}
}

// Create stores a copy of fb with a fresh uuid and a creation time that is
// strictly later than every earlier record.
func (s *FeedbackStore) Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = ts

	record := types.Feedback{
		ID:        uuid.NewString(),
		Name:      fb.Name,
		Email:     fb.Email,
		Message:   fb.Message,
		CreatedAt: ts,
	}
	s.items[record.ID] = record

	return &record, nil
}

// List returns all records, newest first.
func (s *FeedbackStore) List(ctx context.Context) ([]types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]types.Feedback, 0, len(s.items))
	for _, fb := range s.items {
		out = append(out, fb)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FeedbackStore) Get(ctx context.Context, id string) (*types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fb, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &fb, nil
}

func (s *FeedbackStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *FeedbackStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
