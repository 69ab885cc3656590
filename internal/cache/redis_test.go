package cache

import (
	"context"
	"testing"
	"time"

	"github.com/birbparty/birb-fetch/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	rc, err := testutil.StartRedis(ctx)
	require.NoError(t, err, "failed to start redis")
	t.Cleanup(func() { rc.Terminate(context.Background()) })

	cfg := DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.Host = rc.Host
	cfg.Port = rc.Port
	cfg.KeyPrefix = prefix

	c, err := NewRedisCache(cfg)
	require.NoError(t, err, "failed to connect to redis")
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache(t *testing.T) {
	c := newTestRedisCache(t, "test:")
	ctx := context.Background()

	t.Run("miss maps to ErrKeyNotFound", func(t *testing.T) {
		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", []byte(`{"status":200}`), time.Minute))
		got, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":200}`, string(got))
	})

	t.Run("dump strips prefix and sorts", func(t *testing.T) {
		require.NoError(t, c.Flush(ctx))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, c.client.Set(ctx, "other:x", "foreign", 0).Err())

		entries, err := c.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Entry{
			{Key: "a", Value: []byte("1")},
			{Key: "b", Value: []byte("2")},
		}, entries)
	})

	t.Run("load round trip", func(t *testing.T) {
		entries, err := c.Dump(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Flush(ctx))

		_, err = c.Get(ctx, "a")
		require.ErrorIs(t, err, ErrKeyNotFound)

		require.NoError(t, c.Load(ctx, entries))
		got, err := c.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), got)
	})

	t.Run("namespace isolates dumps", func(t *testing.T) {
		require.NoError(t, c.Flush(ctx))
		ns := c.Namespace("render-1:")
		require.NoError(t, ns.Set(ctx, "k", []byte("v"), 0))
		require.NoError(t, c.Namespace("render-2:").Set(ctx, "k", []byte("w"), 0))

		entries, err := ns.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Entry{{Key: "k", Value: []byte("v")}}, entries)

		require.NoError(t, ns.Flush(ctx))
		parent, err := c.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Entry{{Key: "render-2:k", Value: []byte("w")}}, parent)
	})

	t.Run("expire persistent keys", func(t *testing.T) {
		require.NoError(t, c.Flush(ctx))
		require.NoError(t, c.Set(ctx, "render:1:a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "render:2:a", []byte("2"), time.Hour))
		require.NoError(t, c.Set(ctx, "keep", []byte("3"), 0))

		n, err := c.ExpirePersistent(ctx, "render:", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		ttl, err := c.client.TTL(ctx, c.key("render:1:a")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		ttl, err = c.client.TTL(ctx, c.key("keep")).Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, c.Ping(ctx))
		assert.NotNil(t, c.Stats())
	})
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 1
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = 0

	_, err := NewRedisCache(cfg)
	assert.Error(t, err)

	_, err = NewRedisCache(nil)
	assert.Error(t, err)
}
