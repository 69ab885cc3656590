package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Init initializes all telemetry components
func Init(cfg *Config) error {
	if err := InitLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := InitMetrics(cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := InitTracing(cfg); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	L().WithFields(logrus.Fields{
		"service":     cfg.ServiceName,
		"version":     cfg.ServiceVersion,
		"environment": cfg.Environment,
		"tracing":     cfg.EnableTracing,
		"metrics":     cfg.EnableMetrics,
	}).Info("Telemetry initialized")

	return nil
}

// Shutdown flushes exporters. Errors are logged, not returned.
func Shutdown(ctx context.Context) {
	if err := CloseTracing(ctx); err != nil {
		L().WithError(err).Error("Failed to close tracing")
	}
	if err := closeMetrics(ctx); err != nil {
		L().WithError(err).Error("Failed to close metrics")
	}
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// FiberMetricsMiddleware returns a Fiber middleware that opens a span per
// request and records HTTP metrics
func FiberMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx, span := StartSpan(c.UserContext(), c.Method()+" "+c.Path())
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))

		span.SetAttributes(
			semconv.HTTPMethodKey.String(c.Method()),
			semconv.HTTPTargetKey.String(c.OriginalURL()),
			semconv.HTTPStatusCodeKey.Int(status),
		)

		switch {
		case err != nil:
			SetErrorStatus(ctx, err)
		case status >= 500:
			SetErrorStatus(ctx, fmt.Errorf("HTTP %d", status))
		default:
			SetOKStatus(ctx)
		}

		return err
	}
}

// FiberLoggingMiddleware returns a Fiber middleware for structured logging
func FiberLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		entry := WithContext(c.UserContext()).WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		})

		if err != nil {
			entry.WithError(err).Error("Request failed")
		} else if c.Response().StatusCode() >= 400 {
			entry.Warn("Request completed with error status")
		} else {
			entry.Info("Request completed")
		}

		return err
	}
}
