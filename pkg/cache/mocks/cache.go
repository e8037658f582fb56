package mocks

import (
	"context"
	"time"

	"github.com/godilite/gradebot/pkg/cache"
)

// MockCacher is a mock implementation of cache.Cacher. It uses function-based
// mocking for flexibility; unset functions behave like an empty cache.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error
}

// Get implements cache.Cacher
func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return cache.ErrMiss
}

// Set implements cache.Cacher
func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

// Close implements cache.Cacher
func (m *MockCacher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
