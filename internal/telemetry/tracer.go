package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/birbparty/birb-fetch"

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

// InitTracing installs an OTLP gRPC tracer provider. With tracing disabled the
// global no-op provider stays in place.
func InitTracing(cfg *Config) error {
	var err error
	tracerOnce.Do(func() {
		if !cfg.EnableTracing {
			tracer = otel.Tracer(instrumentationName)
			return
		}

		ctx := context.Background()

		res, resErr := newResource(ctx, cfg)
		if resErr != nil {
			err = resErr
			return
		}

		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)

		exporter, exportErr := otlptrace.New(ctx, client)
		if exportErr != nil {
			err = fmt.Errorf("failed to create trace exporter: %w", exportErr)
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		tracer = tp.Tracer(instrumentationName)
	})

	return err
}

// Tracer returns the global tracer instance
func Tracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SetErrorStatus records err on the span in ctx and marks it failed.
func SetErrorStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOKStatus sets the status of the current span to OK
func SetOKStatus(ctx context.Context) {
	trace.SpanFromContext(ctx).SetStatus(codes.Ok, "")
}

// CloseTracing shuts down the tracer provider
func CloseTracing(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		return tp.Shutdown(ctx)
	}
	return nil
}
