package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, 0)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2, 0)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	// touch a so b becomes the oldest
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, 20*time.Millisecond)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "a")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestLRUCache_DumpLoad(t *testing.T) {
	ctx := context.Background()
	src := NewLRUCache(10, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Set(ctx, fmt.Sprintf("k%d", i), []byte(fmt.Sprintf("v%d", i)), 0))
	}

	t.Run("dump is oldest first", func(t *testing.T) {
		entries, err := src.Dump(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "k0", entries[0].Key)
		assert.Equal(t, "k2", entries[2].Key)
	})

	t.Run("dump does not change recency", func(t *testing.T) {
		_, err := src.Dump(ctx)
		require.NoError(t, err)
		entries, err := src.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, "k0", entries[0].Key)
	})

	t.Run("load restores entries and order", func(t *testing.T) {
		entries, err := src.Dump(ctx)
		require.NoError(t, err)

		dst := NewLRUCache(10, 0)
		require.NoError(t, dst.Load(ctx, entries))

		restored, err := dst.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, entries, restored)

		got, err := dst.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("load honors cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		dst := NewLRUCache(10, 0)
		err := dst.Load(cctx, []Entry{{Key: "x", Value: []byte("y")}})
		var cacheErr *CacheError
		require.ErrorAs(t, err, &cacheErr)
		assert.True(t, cacheErr.IsRetryable())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLRUCache_Purge(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(5, 0)
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))

	c.Purge()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 5, c.Cap())
}
