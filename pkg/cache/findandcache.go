package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const defaultSetTimeout = 5 * time.Second

// addTTLJitter adds up to ±15s random jitter to TTLs longer than a minute to
// avoid mass expiration.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= time.Minute {
		return ttl
	}
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	return ttl + jitter
}

// FindAndCache implements read-through caching. Concurrent misses on the same
// key share one call to fn through sf. Cache failures are logged and treated
// as misses; only fn's error is returned.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		logger.Debug("cache hit", zap.String("key", key))
		return cached, nil

	case errors.Is(err, ErrMiss):
		logger.Debug("cache miss", zap.String("key", key))

	default:
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSetTimeout)
		defer cancel()

		ttlWithJitter := addTTLJitter(ttl)
		if err := c.Set(setCtx, key, value, ttlWithJitter); err != nil {
			logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
		} else {
			logger.Debug("cache populated on miss", zap.String("key", key), zap.Duration("ttl", ttlWithJitter))
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
