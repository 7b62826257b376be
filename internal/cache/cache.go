// Package cache memoizes slow lookups (category vocabulary, user names)
// behind a pluggable store. Concurrent misses for the same key share one
// load.
package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load once it is detached from its caller
const loadTimeout = 30 * time.Second

// ErrMiss is returned by a Store when the key is absent or expired
var ErrMiss = errors.New("cache: miss")

// Store holds raw cached values
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache fronts a Store with singleflight
type Cache struct {
	store Store
	log   *zap.Logger
	sf    singleflight.Group
}

// New wraps store. A nil store disables caching but keeps coalescing.
func New(store Store, log *zap.Logger) *Cache {
	if store == nil {
		store = Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log.Named("cache")}
}

// GetOrLoad returns the cached bytes for key, calling load on a miss. Store
// failures are logged and treated as misses.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := c.store.Get(ctx, key)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	// the load serves every waiter, so it outlives the caller that started it
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		if e := c.store.Set(lctx, key, b, ttl); e != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(e))
		}
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate drops key from the store
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}
