package api

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/birbparty/birb-fetch/internal/telemetry"
)

// Config holds the render host configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// UpstreamURL is the base URL relative render URLs resolve against
	UpstreamURL string

	// FetchTimeout bounds every upstream request made during a render
	FetchTimeout time.Duration

	// MaxURLs caps the number of hooks a single render may mount
	MaxURLs int

	// API configuration
	APIKey          string
	RequestTimeout  int
	ShutdownTimeout int
	MetricsPath     string

	Cache     *cache.Config
	Telemetry *telemetry.Config
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnvOrDefault("REQUEST_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := strconv.Atoi(getEnvOrDefault("SHUTDOWN_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	fetchTimeout, err := time.ParseDuration(getEnvOrDefault("FETCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}

	maxURLs, err := strconv.Atoi(getEnvOrDefault("RENDER_MAX_URLS", "32"))
	if err != nil {
		return nil, fmt.Errorf("invalid RENDER_MAX_URLS: %w", err)
	}
	if maxURLs < 1 {
		return nil, fmt.Errorf("invalid RENDER_MAX_URLS: must be positive")
	}

	cacheConfig, err := cache.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            port,
		UpstreamURL:     os.Getenv("UPSTREAM_URL"),
		FetchTimeout:    fetchTimeout,
		MaxURLs:         maxURLs,
		APIKey:          os.Getenv("API_KEY"),
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
		MetricsPath:     getEnvOrDefault("METRICS_PATH", "/metrics"),
		Cache:           cacheConfig,
		Telemetry:       telemetry.NewConfigFromEnv(),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
