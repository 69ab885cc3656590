package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// execute runs one request lifecycle: Start, the request, then End. Every
// failure is reported through dispatch and nothing is returned.
func execute[T any](ctx context.Context, rt *Runtime, cfg RequestConfig, useCache bool, dispatch func(Action[T])) {
	dispatch(Start[T]())

	resp, err := rt.do(ctx, cfg, useCache)
	if err != nil {
		dispatch(Failure[T](err))
		return
	}

	data, err := decode[T](resp)
	if err != nil {
		dispatch(Failure[T](err))
		return
	}
	dispatch(Success(resp, data))
}

// do issues cfg through the active client, routed through the cache adapter
// when useCache is set. Panics from the client are converted to errors.
func (r *Runtime) do(ctx context.Context, cfg RequestConfig, useCache bool) (resp *Response, err error) {
	cfg = cfg.Clone()
	cfg.Method = normalizeMethod(cfg.Method)
	if useCache {
		cfg.Adapter = r.cacheAdapter()
	} else {
		cfg.Adapter = nil
	}

	ctx, span := telemetry.StartSpan(ctx, "fetch "+cfg.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", cfg.Method),
			attribute.String("http.url", cfg.URL),
			attribute.Bool("fetch.use_cache", useCache),
		),
	)
	defer span.End()

	client, _ := r.collaborators()
	obs := r.observer()
	start := time.Now()
	obs.OnRequestStart(cfg.Method, cfg.URL)

	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, newError(ErrorTypeUnknown, fmt.Sprintf("client panicked: %v", p), nil).withRequest(&cfg, time.Since(start))
		}

		duration := time.Since(start)
		obs.OnRequestEnd(cfg.Method, cfg.URL, duration, err)

		log := r.log(ctx).WithFields(logrus.Fields{
			"method":    cfg.Method,
			"url":       cfg.URL,
			"use_cache": useCache,
			"duration":  duration.Milliseconds(),
		})
		if err != nil {
			telemetry.SetErrorStatus(ctx, err)
			log.WithError(err).Warn("Request failed")
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		telemetry.SetOKStatus(ctx)
		log.WithField("status", resp.Status).Debug("Request completed")
	}()

	return client.Do(ctx, &cfg)
}

// decode converts the body into T. []byte, string and json.RawMessage take
// the body verbatim; anything else is JSON-decoded. An empty body yields the
// zero value.
func decode[T any](resp *Response) (T, error) {
	var data T
	switch p := any(&data).(type) {
	case *[]byte:
		*p = resp.Data
		return data, nil
	case *string:
		*p = string(resp.Data)
		return data, nil
	case *json.RawMessage:
		*p = json.RawMessage(resp.Data)
		return data, nil
	}

	if len(resp.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		e := newError(ErrorTypeDecode, fmt.Sprintf("cannot decode body into %T", data), err)
		e.Status = resp.Status
		e.Response = resp
		if resp.Config != nil {
			e = e.withRequest(resp.Config, 0)
		}
		return data, e
	}
	return data, nil
}
