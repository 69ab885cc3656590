package fetch

import (
	"context"
	"sync"

	"github.com/birbparty/birb-fetch/internal/telemetry"
)

// PrefetchRegistry collects the requests issued during server rendering so
// the host can wait for them before serializing the cache.
type PrefetchRegistry struct {
	mu      sync.Mutex
	pending []*prefetch
}

type prefetch struct {
	done chan struct{}
	err  error
}

// NewPrefetchRegistry creates an empty registry.
func NewPrefetchRegistry() *PrefetchRegistry {
	return &PrefetchRegistry{}
}

// Register starts fn on its own goroutine and tracks it until the next Drain.
func (p *PrefetchRegistry) Register(fn func() error) {
	pf := &prefetch{done: make(chan struct{})}

	p.mu.Lock()
	p.pending = append(p.pending, pf)
	p.mu.Unlock()

	telemetry.PrefetchStarted()
	go func() {
		defer close(pf.done)
		pf.err = fn()
		telemetry.PrefetchSettled(pf.err)
	}()
}

// Len returns the number of registered prefetches not yet drained.
func (p *PrefetchRegistry) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Drain clears the registry and waits, in registration order, for every
// prefetch registered so far. It returns the errors of failed prefetches;
// err is only set when ctx ends first.
func (p *PrefetchRegistry) Drain(ctx context.Context) (failures []error, err error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, pf := range pending {
		select {
		case <-pf.done:
			if pf.err != nil {
				failures = append(failures, pf.err)
			}
		case <-ctx.Done():
			return failures, ctx.Err()
		}
	}
	return failures, nil
}
