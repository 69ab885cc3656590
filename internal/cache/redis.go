package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// RedisCache implements Cache using Redis. Every key is stored under
// config.KeyPrefix so Dump only exports this cache's entries.
type RedisCache struct {
	client *redis.Client
	config *Config
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(config *Config) (*RedisCache, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:            config.Address(),
		Password:        config.Password,
		DB:              config.DB,
		MaxRetries:      config.MaxRetries,
		MinRetryBackoff: config.MinRetryBackoff,
		MaxRetryBackoff: config.MaxRetryBackoff,
		DialTimeout:     config.DialTimeout,
		ReadTimeout:     config.ReadTimeout,
		WriteTimeout:    config.WriteTimeout,
		PoolSize:        config.PoolSize,
		MinIdleConns:    config.MinIdleConns,
		ConnMaxIdleTime: config.MaxIdleTime,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: config,
	}, nil
}

// Namespace returns a cache on the same connection pool whose keys live under
// an extra prefix. Closing a namespace closes the shared client.
func (r *RedisCache) Namespace(prefix string) *RedisCache {
	cfg := *r.config
	cfg.KeyPrefix = r.config.KeyPrefix + prefix
	return &RedisCache{client: r.client, config: &cfg}
}

func (r *RedisCache) key(k string) string {
	return r.config.KeyPrefix + k
}

// Get retrieves a value from the cache
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, NewCacheError("failed to get key", true).WithError(err)
	}
	return val, nil
}

// Set stores a value in the cache with optional TTL
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}

	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return NewCacheError("failed to set key", true).WithError(err)
	}
	return nil
}

// Dump scans every key under the prefix and fetches the values with MGET.
// Redis keeps no recency order, so entries are returned sorted by key.
func (r *RedisCache) Dump(ctx context.Context) ([]Entry, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.config.KeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, NewCacheError("failed to scan keys", true).WithError(err)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		batch := keys[start:end]

		values, err := r.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, NewCacheError("failed to get multiple keys", true).WithError(err)
		}

		for i, val := range values {
			// Expired between SCAN and MGET
			strVal, ok := val.(string)
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				Key:   strings.TrimPrefix(batch[i], r.config.KeyPrefix),
				Value: []byte(strVal),
			})
		}
	}

	return entries, nil
}

// Load writes the entries in a single pipeline using the default TTL.
func (r *RedisCache) Load(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, e := range entries {
		pipe.Set(ctx, r.key(e.Key), e.Value, r.config.DefaultTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return NewCacheError("failed to load entries", true).WithError(err)
	}
	return nil
}

// Ping checks if the cache is healthy
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return NewCacheError("ping failed", false).WithError(err)
	}
	return nil
}

// Close closes the cache connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Stats returns Redis connection pool stats
func (r *RedisCache) Stats() *redis.PoolStats {
	if r.client != nil {
		return r.client.PoolStats()
	}
	return nil
}

// Flush removes every key under the prefix.
func (r *RedisCache) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.config.KeyPrefix+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return NewCacheError("failed to scan keys", true).WithError(err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return NewCacheError("failed to delete keys", true).WithError(err)
	}
	return nil
}

// ExpirePersistent gives every key under prefix that has no expiry the given
// ttl and returns how many keys it touched.
func (r *RedisCache) ExpirePersistent(ctx context.Context, prefix string, ttl time.Duration) (int, error) {
	iter := r.client.Scan(ctx, 0, r.config.KeyPrefix+prefix+"*", scanBatch).Iterator()
	touched := 0
	for iter.Next(ctx) {
		key := iter.Val()
		remaining, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			return touched, NewCacheError("failed to read ttl", true).WithError(err)
		}
		// -1 means the key exists without an expiry
		if remaining != -1 {
			continue
		}
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return touched, NewCacheError("failed to set expiry", true).WithError(err)
		}
		touched++
	}
	if err := iter.Err(); err != nil {
		return touched, NewCacheError("failed to scan keys", true).WithError(err)
	}
	return touched, nil
}
