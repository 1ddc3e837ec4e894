// Package cache holds the key/value stores behind the home listing cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatube/internal/config"
)

// ErrMiss is returned by Store.Get for absent or expired keys.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-valued cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry owned by this store.
	Clear(ctx context.Context) error
	Close() error
}

// NewStore builds the backend selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStore(cfg.Size)
	case "redis":
		return DialRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
