package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates a memory cache whose entries expire after defaultTTL
// unless Set is given an explicit expiration.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Memory{items: gocache.New(defaultTTL, memoryCleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string, dest any) error {
	v, ok := m.items.Get(key)
	if !ok {
		return ErrMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *Memory) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	m.items.Set(key, data, expiration)
	return nil
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
