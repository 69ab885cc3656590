package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is an in-process, capacity-bounded cache. Eviction, expiry and
// locking are handled by golang-lru.
type LRUCache struct {
	entries *expirable.LRU[string, []byte]
	size    int
}

// NewLRUCache creates an LRU holding at most size entries. A size of zero
// means unbounded and a ttl of zero disables expiry.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		entries: expirable.NewLRU[string, []byte](size, nil, ttl),
		size:    size,
	}
}

// Get retrieves a value and marks it as recently used
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// Set stores a value. Per-entry TTLs are not supported; the cache-wide TTL applies.
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	c.entries.Add(key, value)
	return nil
}

// Dump exports live entries from least to most recently used without
// touching their recency.
func (c *LRUCache) Dump(ctx context.Context) ([]Entry, error) {
	keys := c.entries.Keys()
	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		if value, ok := c.entries.Peek(key); ok {
			out = append(out, Entry{Key: key, Value: value})
		}
	}
	return out, nil
}

// Load adds entries in order, so a Dump/Load round trip keeps recency.
func (c *LRUCache) Load(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return NewCacheError("load interrupted", true).WithError(err)
		}
		c.entries.Add(e.Key, e.Value)
	}
	return nil
}

// Len returns the number of live entries
func (c *LRUCache) Len() int {
	return c.entries.Len()
}

// Cap returns the configured capacity; zero means unbounded.
func (c *LRUCache) Cap() int {
	return c.size
}

// Purge drops every entry.
func (c *LRUCache) Purge() {
	c.entries.Purge()
}
