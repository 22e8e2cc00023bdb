package main

import (
	"context"

	"github.com/folio-site/folio-backend/pkg/feedbackapi"
	"github.com/folio-site/folio-backend/types"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

var _ feedbackapi.ClientInterface = (*MockClient)(nil)

func (m *MockClient) List(ctx context.Context) ([]types.Feedback, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Create(ctx context.Context, req types.FeedbackCreate) (*types.Feedback, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Get(ctx context.Context, id string) (*types.Feedback, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
