package fetch

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Mode tells a runtime whether hooks run during server rendering or in an
// interactive client.
type Mode int

const (
	// ModeBrowser runs automatic fetches through the lifecycle reducer.
	ModeBrowser Mode = iota
	// ModeServer registers cache-routed prefetches for SerializeCache and
	// leaves hook state untouched.
	ModeServer
)

func (m Mode) String() string {
	switch m {
	case ModeBrowser:
		return "browser"
	case ModeServer:
		return "server"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Config holds the defaults a Runtime restores on Reset.
//
// Example:
//
//	cfg := fetch.DefaultConfig().
//	    WithBaseURL("https://api.example.com").
//	    WithTimeout(5 * time.Second).
//	    WithCacheSize(1000).
//	    WithMode(fetch.ModeServer)
//
//	rt, err := fetch.NewRuntime(cfg)
type Config struct {
	// BaseURL is prepended to relative request URLs
	BaseURL string

	// Timeout bounds every request made by the default client
	Timeout time.Duration

	// Headers are sent with every request made by the default client
	Headers map[string]string

	// CacheSize caps the default LRU cache; zero means unbounded
	CacheSize int

	// CacheTTL expires default cache entries; zero keeps them until evicted
	CacheTTL time.Duration

	Mode Mode

	// Observer receives request and cache events. Defaults to prometheus metrics.
	Observer Observer

	// Logger defaults to the process logger
	Logger *logrus.Logger

	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a browser-mode configuration with a 500 entry cache.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		Headers:         make(map[string]string),
		CacheSize:       500,
		Mode:            ModeBrowser,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// WithBaseURL sets the base URL for relative requests
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithHeader adds a default header
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithCacheSize sets the capacity of the default cache
func (c *Config) WithCacheSize(size int) *Config {
	c.CacheSize = size
	return c
}

// WithCacheTTL sets the expiry of default cache entries
func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.CacheTTL = ttl
	return c
}

// WithMode sets the execution mode
func (c *Config) WithMode(mode Mode) *Config {
	c.Mode = mode
	return c
}

// WithObserver sets the observer
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// Validate fills unset defaults and rejects values that cannot work.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: base URL must have a scheme and host", ErrInvalidConfig)
		}
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache size cannot be negative", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache TTL cannot be negative", ErrInvalidConfig)
	}
	if c.Mode != ModeBrowser && c.Mode != ModeServer {
		return fmt.Errorf("%w: unknown %s", ErrInvalidConfig, c.Mode)
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.Observer == nil {
		c.Observer = &PrometheusObserver{}
	}
	return nil
}
