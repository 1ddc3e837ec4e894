package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yatube/internal/logger"
)

func TestListingCacheServesStaleUntilExpiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t, 8)
	lc := NewListingCache(store, 20*time.Second)

	version := "first"
	calls := 0
	render := func() ([]byte, error) {
		calls++
		return []byte(version), nil
	}

	body, err := lc.Fetch(ctx, IndexPageKey, render)
	require.NoError(t, err)
	assert.Equal(t, "first", string(body))

	version = "second"
	body, err = lc.Fetch(ctx, IndexPageKey, render)
	require.NoError(t, err)
	assert.Equal(t, "first", string(body), "stale read before expiry")
	assert.Equal(t, 1, calls)

	clock.Advance(20 * time.Second)
	body, err = lc.Fetch(ctx, IndexPageKey, render)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
	assert.Equal(t, 2, calls)
}

func TestListingCacheClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t, 8)
	lc := NewListingCache(store, time.Minute)

	version := "first"
	render := func() ([]byte, error) { return []byte(version), nil }

	_, err := lc.Fetch(ctx, IndexPageKey, render)
	require.NoError(t, err)

	version = "second"
	require.NoError(t, lc.Clear(ctx))

	body, err := lc.Fetch(ctx, IndexPageKey, render)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
}

func TestListingCacheDoesNotStoreRenderErrors(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t, 8)
	lc := NewListingCache(store, time.Minute)

	boom := errors.New("boom")
	_, err := lc.Fetch(ctx, IndexPageKey, func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, IndexPageKey)
	assert.ErrorIs(t, err, ErrMiss)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("down") }
func (brokenStore) Clear(context.Context) error          { return errors.New("down") }
func (brokenStore) Close() error                         { return nil }

func TestListingCacheFallsThroughOnStoreFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	lc := NewListingCache(brokenStore{}, time.Minute)

	body, err := lc.Fetch(context.Background(), IndexPageKey, func() ([]byte, error) {
		return []byte("fresh"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
	assert.Equal(t, 1, logs.FilterMessage("listing cache read failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("listing cache write failed").Len())
}
