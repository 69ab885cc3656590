package fetch

import "context"

var defaultRuntime = mustNewRuntime(DefaultConfig())

func mustNewRuntime(cfg *Config) *Runtime {
	rt, err := NewRuntime(cfg)
	if err != nil {
		panic(err)
	}
	return rt
}

// DefaultRuntime returns the process-wide runtime behind the package-level
// functions.
func DefaultRuntime() *Runtime {
	return defaultRuntime
}

// Configure replaces the default runtime's client and/or cache.
func Configure(opts ConfigureOptions) {
	defaultRuntime.Configure(opts)
}

// ResetConfigure restores the default runtime's client and an empty cache.
func ResetConfigure() {
	defaultRuntime.Reset()
}

// LoadCache hydrates the default runtime's cache.
func LoadCache(ctx context.Context, entries []CacheEntry) error {
	return defaultRuntime.LoadCache(ctx, entries)
}

// SerializeCache waits for the default runtime's prefetches and dumps its cache.
func SerializeCache(ctx context.Context) ([]CacheEntry, error) {
	return defaultRuntime.SerializeCache(ctx)
}

// UseFetch mounts a hook on the default runtime.
func UseFetch[T any](ctx context.Context, req Request, opts ...Option) *Hook[T] {
	return Use[T](ctx, defaultRuntime, req, opts...)
}
