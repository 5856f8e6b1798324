package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"feed-ingest/internal/infra/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client), srv
}

func TestRedisCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.True(t, errors.Is(err, cache.ErrMiss))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRedisCache_SetExpires(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	srv.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, cache.ErrMiss))
}

func TestRedisCache_IncrementAndExpire(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, c.Expire(ctx, "counter", time.Hour))
	srv.FastForward(2 * time.Hour)

	n, err = c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
