// Package cache provides the response caches used for rendered charts.
//
// Every backend stores values as JSON so a value read back from a remote
// backend and from the in-process one behave the same.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cacher defines the interface for cache operations.
type Cacher interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Close() error
}

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Open builds the backend named by backend. An empty name means no caching.
func Open(ctx context.Context, backend string, defaultTTL time.Duration, opts ...Option) (Cacher, error) {
	switch backend {
	case "", BackendNone:
		return Noop{}, nil
	case BackendMemory:
		return NewMemory(defaultTTL), nil
	case BackendRedis:
		return NewRedis(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error                { return ErrMiss }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Close() error                                          { return nil }
