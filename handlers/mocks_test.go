package handlers

import (
	"context"

	"github.com/folio-site/folio-backend/types"
	"github.com/stretchr/testify/mock"
)

// MockFeedbackRepository implements store.FeedbackRepository for handler tests.
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	args := m.Called(ctx, fb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) List(ctx context.Context) ([]types.Feedback, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) Get(ctx context.Context, id string) (*types.Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotificationQueue records enqueued notifications.
type MockNotificationQueue struct {
	mock.Mock
}

func (m *MockNotificationQueue) Enqueue(fb types.Feedback) bool {
	args := m.Called(fb)
	return args.Bool(0)
}
