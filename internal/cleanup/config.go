package cleanup

import (
	"os"
	"time"
)

// LoadSweepConfig loads sweeper configuration from environment variables
func LoadSweepConfig() SweepConfig {
	return SweepConfig{
		Prefix:    getEnvString("CLEANUP_PREFIX", "render:"),
		OrphanTTL: getEnvDuration("CLEANUP_ORPHAN_TTL", 10*time.Minute),
		Interval:  getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute),
	}
}

// getEnvString gets a string value from environment or returns default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment or returns default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
