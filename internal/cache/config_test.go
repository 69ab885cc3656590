package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendLRU, cfg.Backend)
		assert.Equal(t, 500, cfg.Size)
		assert.Equal(t, "localhost:6379", cfg.Address())
		assert.Zero(t, cfg.DefaultTTL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CACHE_BACKEND", "redis")
		t.Setenv("CACHE_SIZE", "42")
		t.Setenv("CACHE_DEFAULT_TTL", "90")
		t.Setenv("REDIS_HOST", "cache.internal")
		t.Setenv("REDIS_KEY_PREFIX", "ssr:")

		cfg, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendRedis, cfg.Backend)
		assert.Equal(t, 42, cfg.Size)
		assert.Equal(t, 90*time.Second, cfg.DefaultTTL)
		assert.Equal(t, "cache.internal:6379", cfg.Address())
		assert.Equal(t, "ssr:", cfg.KeyPrefix)
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := map[string]string{
			"CACHE_SIZE":        "lots",
			"REDIS_PORT":        "http",
			"CACHE_DEFAULT_TTL": "soon",
			"CACHE_BACKEND":     "memcached",
		}
		for key, value := range tests {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				_, err := NewConfigFromEnv()
				assert.Error(t, err)
			})
		}
	})
}

func TestNew_LRUBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Size = 3

	c, err := New(cfg)
	require.NoError(t, err)

	lru, ok := c.(*LRUCache)
	require.True(t, ok)
	assert.Equal(t, 3, lru.Cap())
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "disk"

	_, err := New(cfg)
	assert.Error(t, err)
}
