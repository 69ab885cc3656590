package fetch

import (
	"context"
	"sync"

	"github.com/birbparty/birb-fetch/internal/telemetry"
)

// Option configures a hook.
type Option func(*hookOptions)

type hookOptions struct {
	manual   bool
	useCache bool
	mode     *Mode
}

func newHookOptions(opts []Option) hookOptions {
	o := hookOptions{useCache: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Manual disables the automatic request on mount and on Update.
func Manual(manual bool) Option {
	return func(o *hookOptions) { o.manual = manual }
}

// UseCache routes automatic requests through the cache. Defaults to true.
func UseCache(useCache bool) Option {
	return func(o *hookOptions) { o.useCache = useCache }
}

// WithMode overrides the runtime's execution mode for one hook.
func WithMode(mode Mode) Option {
	return func(o *hookOptions) { o.mode = &mode }
}

// ExecuteOption configures a single Execute call.
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	useCache bool
}

// WithCache routes an Execute call through the cache. Execute bypasses the
// cache by default.
func WithCache(useCache bool) ExecuteOption {
	return func(o *executeOptions) { o.useCache = useCache }
}

// Hook binds one request to a runtime and tracks its lifecycle state.
//
// Every request a hook issues takes the next sequence number; only the
// actions of the most recently issued request update the state, so a slow
// earlier request never overwrites a later one.
type Hook[T any] struct {
	rt *Runtime

	mu       sync.Mutex
	cfg      RequestConfig
	opts     hookOptions
	state    State[T]
	seq      uint64
	inflight int
	idle     chan struct{}
	subs     map[int]func(State[T])
	nextSub  int

	// notifyMu keeps subscriber deliveries in dispatch order.
	notifyMu sync.Mutex
}

// Use mounts a hook on rt.
//
// In ModeServer a cache-routed prefetch is registered with the runtime, even
// for manual hooks, and the state stays at its initial value. In ModeBrowser
// a non-manual hook starts its first request in the background; the initial
// state already reports Loading.
func Use[T any](ctx context.Context, rt *Runtime, req Request, opts ...Option) *Hook[T] {
	o := newHookOptions(opts)

	idle := make(chan struct{})
	close(idle)

	h := &Hook[T]{
		rt:    rt,
		cfg:   Normalize(req),
		opts:  o,
		state: State[T]{Loading: !o.manual},
		idle:  idle,
		subs:  make(map[int]func(State[T])),
	}
	h.mount(ctx, h.cfg, o)
	return h
}

func (h *Hook[T]) mount(ctx context.Context, cfg RequestConfig, o hookOptions) {
	if h.mode(o) == ModeServer {
		h.rt.prefetch(ctx, cfg)
		return
	}
	if o.manual {
		return
	}

	seq := h.begin()
	go h.run(ctx, seq, cfg, o.useCache)
}

func (h *Hook[T]) mode(o hookOptions) Mode {
	if o.mode != nil {
		return *o.mode
	}
	return h.rt.Mode()
}

// Update re-binds the hook to new inputs, as a re-render would. When the
// request fingerprint, the manual flag or the cache flag changed, the hook
// mounts again: a prefetch in server mode, otherwise one background request
// unless manual.
func (h *Hook[T]) Update(ctx context.Context, req Request, opts ...Option) {
	cfg := Normalize(req)
	o := newHookOptions(opts)

	h.mu.Lock()
	if o.mode == nil {
		o.mode = h.opts.mode
	}
	changed := o.manual != h.opts.manual || o.useCache != h.opts.useCache || !sameRequest(h.cfg, cfg)
	h.cfg = cfg
	h.opts = o
	h.mu.Unlock()

	if changed {
		h.mount(ctx, cfg, o)
	}
}

// sameRequest compares fingerprints. Two configs that fail to fingerprint
// with the same error count as the same request.
func sameRequest(a, b RequestConfig) bool {
	fa, errA := Fingerprint(&a)
	fb, errB := Fingerprint(&b)
	if errA != nil || errB != nil {
		return errA != nil && errB != nil && errA.Error() == errB.Error()
	}
	return fa == fb
}

// Execute re-issues the hook's request with override shallow-merged on top
// and blocks until it settles. The outcome is recorded in the state, never
// returned. The cache is bypassed unless WithCache(true) is given.
func (h *Hook[T]) Execute(ctx context.Context, override *RequestConfig, opts ...ExecuteOption) {
	var eo executeOptions
	for _, opt := range opts {
		opt(&eo)
	}

	h.mu.Lock()
	cfg := h.cfg.Clone()
	h.mu.Unlock()

	if override != nil {
		cfg = cfg.Merge(*override)
	}

	h.run(ctx, h.begin(), cfg, eo.useCache)
}

// begin reserves the next sequence number and marks a request in flight.
func (h *Hook[T]) begin() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	if h.inflight == 0 {
		h.idle = make(chan struct{})
	}
	h.inflight++
	return h.seq
}

func (h *Hook[T]) run(ctx context.Context, seq uint64, cfg RequestConfig, useCache bool) {
	defer h.finish()
	execute(ctx, h.rt, cfg, useCache, func(a Action[T]) {
		h.dispatch(seq, a)
	})
}

func (h *Hook[T]) finish() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.inflight--
	if h.inflight == 0 {
		close(h.idle)
	}
}

func (h *Hook[T]) dispatch(seq uint64, a Action[T]) {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	h.mu.Lock()
	// A request that is no longer the latest may not touch the state. Its
	// Start can arrive after a newer request already settled.
	if seq != h.seq {
		h.mu.Unlock()
		if a.Type == ActionEnd {
			telemetry.RecordStaleResponse()
		}
		return
	}
	h.state = Reduce(h.state, a)
	snapshot := h.state
	subs := make([]func(State[T]), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// State returns the current state.
func (h *Hook[T]) State() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Config returns the request the hook is bound to.
func (h *Hook[T]) Config() RequestConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.Clone()
}

// Subscribe registers fn to receive every state change. fn runs on the
// request goroutine and must not call Execute synchronously.
func (h *Hook[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Wait blocks until no request of this hook is in flight.
func (h *Hook[T]) Wait(ctx context.Context) error {
	h.mu.Lock()
	idle := h.idle
	h.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
