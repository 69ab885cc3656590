package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// Runtime is the context every hook is bound to: the active client, the
// active cache, the execution mode and the server prefetch registry.
// Hooks read the client and cache when a request starts, so Configure and
// Reset affect every later request of every hook on the runtime.
//
// A Runtime is safe for concurrent use.
type Runtime struct {
	config *Config

	mu       sync.RWMutex
	client   Client
	cache    Cache
	registry *PrefetchRegistry
}

// ConfigureOptions replaces runtime collaborators. Nil fields are left as they are.
type ConfigureOptions struct {
	Client Client
	Cache  Cache
}

// NewRuntime validates cfg and creates a runtime with a fresh default client
// and cache. A nil cfg means DefaultConfig().
func NewRuntime(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{config: cfg}
	r.Reset()
	return r, nil
}

// Configure swaps in the given collaborators; last writer wins.
func (r *Runtime) Configure(opts ConfigureOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Client != nil {
		r.client = opts.Client
	}
	if opts.Cache != nil {
		r.cache = opts.Cache
	}
}

// Reset restores the default client, an empty default cache and an empty
// prefetch registry.
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.client = NewHTTPClient(r.config)
	r.cache = cache.NewLRUCache(r.config.CacheSize, r.config.CacheTTL)
	r.registry = NewPrefetchRegistry()
}

// Client returns the active client.
func (r *Runtime) Client() Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Cache returns the active cache.
func (r *Runtime) Cache() Cache {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache
}

// Mode returns the configured execution mode.
func (r *Runtime) Mode() Mode {
	return r.config.Mode
}

// Pending returns the number of server prefetches awaiting SerializeCache.
func (r *Runtime) Pending() int {
	return r.prefetches().Len()
}

func (r *Runtime) collaborators() (Client, Cache) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client, r.cache
}

func (r *Runtime) prefetches() *PrefetchRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registry
}

func (r *Runtime) observer() Observer {
	return r.config.Observer
}

func (r *Runtime) log(ctx context.Context) *logrus.Entry {
	l := r.config.Logger
	if l == nil {
		l = telemetry.L()
	}
	return telemetry.EntryWithContext(l, ctx).WithField("component", "fetch")
}

// prefetch issues a cache-routed request for server rendering and registers
// it for SerializeCache. Its outcome only reaches the cache.
func (r *Runtime) prefetch(ctx context.Context, cfg RequestConfig) {
	r.prefetches().Register(func() error {
		_, err := r.do(ctx, cfg, true)
		return err
	})
}

// LoadCache hydrates the active cache from a SerializeCache dump.
func (r *Runtime) LoadCache(ctx context.Context, entries []CacheEntry) error {
	if err := r.Cache().Load(ctx, entries); err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	r.log(ctx).WithField("entries", len(entries)).Debug("Cache hydrated")
	return nil
}

// SerializeCache waits for every registered prefetch, clears the registry
// and dumps the active cache. Failed prefetches are logged and left out of
// the dump, so the client refetches them after hydration.
func (r *Runtime) SerializeCache(ctx context.Context) ([]CacheEntry, error) {
	failures, err := r.prefetches().Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for prefetches: %w", err)
	}
	for _, f := range failures {
		r.log(ctx).WithError(f).Warn("Prefetch failed")
	}

	entries, err := r.Cache().Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dump cache: %w", err)
	}
	telemetry.UpdateSerializedEntries(len(entries))
	r.log(ctx).WithFields(logrus.Fields{
		"entries":  len(entries),
		"failures": len(failures),
	}).Debug("Cache serialized")

	return entries, nil
}

// MarshalCache encodes a dump for embedding in rendered output.
func MarshalCache(entries []CacheEntry) ([]byte, error) {
	if entries == nil {
		entries = []CacheEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalCache decodes the output of MarshalCache.
func UnmarshalCache(data []byte) ([]CacheEntry, error) {
	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid cache dump: %w", err)
	}
	return entries, nil
}
