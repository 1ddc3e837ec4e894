package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"yatube/internal/logger"
)

// IndexPageKey identifies the default render of the home listing.
const IndexPageKey = "index_page"

// ListingCache serves previously rendered listing pages until their TTL runs
// out or the cache is cleared. Writes to posts never invalidate it.
type ListingCache struct {
	store Store
	ttl   time.Duration
}

func NewListingCache(store Store, ttl time.Duration) *ListingCache {
	return &ListingCache{store: store, ttl: ttl}
}

// Fetch returns the cached body for key, or calls render and stores its
// result. Store failures are logged and fall through to render.
func (c *ListingCache) Fetch(ctx context.Context, key string, render func() ([]byte, error)) ([]byte, error) {
	body, err := c.store.Get(ctx, key)
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}

	body, err = render()
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}

// Clear empties the whole store; the next read of every listing recomputes.
func (c *ListingCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
