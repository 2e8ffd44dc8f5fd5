package remote

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hupe1980/terrastore/datastore"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(datastore.ObjectInfo), args.Error(1)
}

func (m *MockProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProvider) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, data, contentType, metadata)
	return args.Error(0)
}

func (m *MockProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockProvider) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.ObjectInfo), args.Error(1)
}
