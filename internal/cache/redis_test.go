package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/config"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := DialRedis(context.Background(), config.RedisConfig{Addr: mr.Addr(), Prefix: "yatube:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Set(ctx, IndexPageKey, []byte("<html>"), 20*time.Second))
	assert.True(t, mr.Exists("yatube:"+IndexPageKey))

	got, err := s.Get(ctx, IndexPageKey)
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(got))

	mr.FastForward(21 * time.Second)
	_, err = s.Get(ctx, IndexPageKey)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreClearOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, mr.Set("other:key", "keep"))
	for i := 0; i < 250; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}

	require.NoError(t, s.Clear(ctx))

	_, err := s.Get(ctx, "k0")
	assert.ErrorIs(t, err, ErrMiss)
	assert.True(t, mr.Exists("other:key"))
}

func TestDialRedisFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := DialRedis(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "p:")

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, config.CacheConfig{Backend: "memory", Size: 4})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = NewStore(ctx, config.CacheConfig{Backend: "redis", Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "t:"}})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(ctx, config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}
