package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client, DefaultConfig())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr(), Config: DefaultConfig()})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestNewRedisCache_ConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr, Config: DefaultConfig()})
	assert.Error(t, err)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Keys are prefixed in Redis.
	assert.True(t, mr.Exists("tsparse:k"))
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "missing")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "default", []byte("v"), 0))
	assert.Equal(t, DefaultConfig().DefaultTTL, mr.TTL("tsparse:default"))

	require.NoError(t, c.Set(ctx, "forever", []byte("v"), -1))
	assert.Equal(t, time.Duration(0), mr.TTL("tsparse:forever"))

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("unrelated", "x"))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), time.Minute))
	}

	require.NoError(t, c.Delete(ctx, "a"))
	assert.False(t, mr.Exists("tsparse:a"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("tsparse:b"))
	assert.False(t, mr.Exists("tsparse:c"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}
