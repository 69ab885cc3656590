package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	metricsOnce   sync.Once
	meterProvider *sdkmetric.MeterProvider

	// Fetch metrics
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Total number of fetch executions by outcome",
	}, []string{"method", "host", "outcome"})

	fetchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetch_request_duration_seconds",
		Help:    "Duration of fetch executions in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "host"})

	fetchStaleDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_stale_responses_total",
		Help: "Completions discarded because a newer request was issued",
	})

	// Cache metrics
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_cache_lookups_total",
		Help: "Cache adapter lookups by result",
	}, []string{"result"})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetch_cache_serialized_entries",
		Help: "Number of entries in the last serialized cache dump",
	})

	// Prefetch metrics
	prefetchPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetch_prefetch_pending",
		Help: "Server-side prefetches registered and not yet drained",
	})

	prefetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_prefetch_failures_total",
		Help: "Server-side prefetches that completed with an error",
	})

	// Host metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	serviceUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "service_up",
		Help: "Whether the service is up (1) or down (0)",
	})
)

// InitMetrics marks the service up and, when enabled, starts the OTLP meter provider.
func InitMetrics(cfg *Config) error {
	var err error
	metricsOnce.Do(func() {
		if cfg.EnableMetrics {
			err = initOTELMetrics(cfg)
		}
		serviceUp.Set(1)
	})
	return err
}

func initOTELMetrics(cfg *Config) error {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return err
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(cfg.MetricsInterval)*time.Second),
			),
		),
	)
	otel.SetMeterProvider(meterProvider)

	return nil
}

func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func closeMetrics(ctx context.Context) error {
	if meterProvider == nil {
		return nil
	}
	return meterProvider.Shutdown(ctx)
}

// RecordFetch records one settled fetch execution.
func RecordFetch(method, host, outcome string, duration time.Duration) {
	fetchRequestsTotal.WithLabelValues(method, host, outcome).Inc()
	fetchRequestDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

// RecordStaleResponse counts a completion dropped by the sequence guard.
func RecordStaleResponse() {
	fetchStaleDropped.Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

// UpdateSerializedEntries records the size of the last cache dump.
func UpdateSerializedEntries(n int) {
	cacheEntries.Set(float64(n))
}

// PrefetchStarted and PrefetchSettled track the pending prefetch gauge.
func PrefetchStarted() {
	prefetchPending.Inc()
}

func PrefetchSettled(err error) {
	prefetchPending.Dec()
	if err != nil {
		prefetchFailures.Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
