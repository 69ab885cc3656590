package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted by CACHE_BACKEND.
const (
	BackendLRU   = "lru"
	BackendRedis = "redis"
)

// Config holds cache configuration
type Config struct {
	Backend string

	// In-process LRU settings
	Size int

	// Redis connection settings
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string

	// Connection pool settings
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	MaxIdleTime     time.Duration

	// Default TTL for cache entries; zero keeps entries until evicted
	DefaultTTL time.Duration
}

// DefaultConfig returns an in-process LRU configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:         BackendLRU,
		Size:            500,
		Host:            "localhost",
		Port:            6379,
		KeyPrefix:       "birb-fetch:",
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        20,
		MinIdleConns:    2,
		MaxIdleTime:     5 * time.Minute,
	}
}

// NewConfigFromEnv creates a new Config from environment variables
func NewConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	size, err := strconv.Atoi(getEnvOrDefault("CACHE_SIZE", strconv.Itoa(cfg.Size)))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	port, err := strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	poolSize, err := strconv.Atoi(getEnvOrDefault("REDIS_POOL_SIZE", strconv.Itoa(cfg.PoolSize)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}

	defaultTTL, err := parseDuration(getEnvOrDefault("CACHE_DEFAULT_TTL", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_DEFAULT_TTL: %w", err)
	}

	cfg.Backend = getEnvOrDefault("CACHE_BACKEND", BackendLRU)
	cfg.Size = size
	cfg.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	cfg.Port = port
	cfg.Password = os.Getenv("REDIS_PASSWORD")
	cfg.DB = db
	cfg.KeyPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", cfg.KeyPrefix)
	cfg.PoolSize = poolSize
	cfg.DefaultTTL = defaultTTL

	if cfg.Backend != BackendLRU && cfg.Backend != BackendRedis {
		return nil, fmt.Errorf("invalid CACHE_BACKEND: %q", cfg.Backend)
	}

	return cfg, nil
}

// Address returns the Redis server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New builds the cache selected by c.Backend.
func New(c *Config) (Cache, error) {
	switch c.Backend {
	case BackendRedis:
		return NewRedisCache(c)
	case BackendLRU, "":
		return NewLRUCache(c.Size, c.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) (time.Duration, error) {
	// Try parsing as a duration string (e.g., "1h30m")
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Try parsing as seconds
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
