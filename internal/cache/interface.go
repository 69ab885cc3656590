package cache

import (
	"context"
	"time"
)

// Cache is the response store behind the fetch cache adapter. Values are
// opaque bytes; keys are request fingerprints.
type Cache interface {
	// Get retrieves a value from the cache. It returns ErrKeyNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache. A zero ttl means the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Dump exports every live entry, oldest first.
	Dump(ctx context.Context) ([]Entry, error)

	// Load restores entries previously produced by Dump.
	Load(ctx context.Context, entries []Entry) error
}

// Entry is a single exported cache record.
type Entry struct {
	Key   string `json:"k"`
	Value []byte `json:"v"`
}

// ErrKeyNotFound is returned by Get when a key is absent
var ErrKeyNotFound = NewCacheError("key not found", true)

// CacheError represents a cache-specific error
type CacheError struct {
	Message    string
	Retryable  bool
	Underlying error
}

// NewCacheError creates a new cache error
func NewCacheError(message string, retryable bool) *CacheError {
	return &CacheError{
		Message:   message,
		Retryable: retryable,
	}
}

// Error implements the error interface
func (e *CacheError) Error() string {
	if e.Underlying != nil {
		return e.Message + ": " + e.Underlying.Error()
	}
	return e.Message
}

// WithError adds an underlying error
func (e *CacheError) WithError(err error) *CacheError {
	e.Underlying = err
	return e
}

// Unwrap returns the underlying error
func (e *CacheError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether the error is retryable
func (e *CacheError) IsRetryable() bool {
	return e.Retryable
}
