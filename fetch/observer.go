package fetch

import (
	"net/url"
	"sync"
	"time"

	"github.com/birbparty/birb-fetch/internal/telemetry"
)

// Observer receives request and cache events from a Runtime. Methods are
// called on the request goroutine and should not block.
//
// Example implementation:
//
//	type LogObserver struct {
//	    logger *log.Logger
//	}
//
//	func (o *LogObserver) OnRequestEnd(method, url string, d time.Duration, err error) {
//	    o.logger.Printf("%s %s took %v (err=%v)", method, url, d, err)
//	}
type Observer interface {
	// OnRequestStart is called before the client is invoked.
	OnRequestStart(method, url string)

	// OnRequestEnd is called once the request settled, with err set on failure.
	OnRequestEnd(method, url string, duration time.Duration, err error)

	// OnCacheHit is called when the cache adapter serves a fingerprint.
	OnCacheHit(key string)

	// OnCacheMiss is called when the cache adapter falls through to the client.
	OnCacheMiss(key string)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (n *NoopObserver) OnRequestStart(method, url string) {}

func (n *NoopObserver) OnRequestEnd(method, url string, duration time.Duration, err error) {}

func (n *NoopObserver) OnCacheHit(key string) {}

func (n *NoopObserver) OnCacheMiss(key string) {}

// PrometheusObserver exports events through the process prometheus registry.
// It is the default observer.
type PrometheusObserver struct{}

func (p *PrometheusObserver) OnRequestStart(method, url string) {}

func (p *PrometheusObserver) OnRequestEnd(method, rawURL string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	telemetry.RecordFetch(method, hostLabel(rawURL), outcome, duration)
}

func (p *PrometheusObserver) OnCacheHit(key string) {
	telemetry.RecordCacheHit()
}

func (p *PrometheusObserver) OnCacheMiss(key string) {
	telemetry.RecordCacheMiss()
}

// hostLabel keeps metric cardinality bounded by the number of upstream hosts.
func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "relative"
	}
	return u.Host
}

// MetricsCollector counts events in memory. It is meant for tests and debugging.
//
// Example:
//
//	metrics := fetch.NewMetricsCollector()
//	rt, _ := fetch.NewRuntime(fetch.DefaultConfig().WithObserver(metrics))
//	// ...
//	fmt.Println(metrics.Requests(), metrics.CacheHits())
type MetricsCollector struct {
	mu          sync.RWMutex
	requests    map[string]int64
	errors      map[string]int64
	latencies   map[string][]time.Duration
	cacheHits   int64
	cacheMisses int64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requests:  make(map[string]int64),
		errors:    make(map[string]int64),
		latencies: make(map[string][]time.Duration),
	}
}

// OnRequestStart increments request count
func (m *MetricsCollector) OnRequestStart(method, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[method+" "+url]++
}

// OnRequestEnd records request duration and errors
func (m *MetricsCollector) OnRequestEnd(method, url string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + url
	m.latencies[key] = append(m.latencies[key], duration)
	if err != nil {
		m.errors[key]++
	}
}

// OnCacheHit increments cache hit count
func (m *MetricsCollector) OnCacheHit(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// OnCacheMiss increments cache miss count
func (m *MetricsCollector) OnCacheMiss(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

// Requests returns the total number of executions started.
func (m *MetricsCollector) Requests() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, c := range m.requests {
		n += c
	}
	return n
}

// Errors returns the total number of failed executions.
func (m *MetricsCollector) Errors() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, c := range m.errors {
		n += c
	}
	return n
}

func (m *MetricsCollector) CacheHits() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cacheHits
}

func (m *MetricsCollector) CacheMisses() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cacheMisses
}

// CompositeObserver fans events out to several observers. A panicking
// observer does not stop the others.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an observer that delegates to multiple observers.
func NewCompositeObserver(observers ...Observer) Observer {
	return &CompositeObserver{observers: observers}
}

func (c *CompositeObserver) each(fn func(Observer)) {
	for _, obs := range c.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					telemetry.L().WithField("panic", r).Error("Observer panicked")
				}
			}()
			fn(obs)
		}()
	}
}

func (c *CompositeObserver) OnRequestStart(method, url string) {
	c.each(func(o Observer) { o.OnRequestStart(method, url) })
}

func (c *CompositeObserver) OnRequestEnd(method, url string, duration time.Duration, err error) {
	c.each(func(o Observer) { o.OnRequestEnd(method, url, duration, err) })
}

func (c *CompositeObserver) OnCacheHit(key string) {
	c.each(func(o Observer) { o.OnCacheHit(key) })
}

func (c *CompositeObserver) OnCacheMiss(key string) {
	c.each(func(o Observer) { o.OnCacheMiss(key) })
}
