package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of the report object store
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockObjectStore) GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, key, expiration)
	return args.String(0), args.Error(1)
}
