package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/birbparty/birb-fetch/fetch"
	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// pinger is implemented by caches backed by a remote store
type pinger interface {
	Ping(ctx context.Context) error
}

// Handler server-renders sets of upstream URLs through fetch hooks
type Handler struct {
	cfg    *Config
	shared cache.Cache
	client *fetch.HTTPClient
}

// NewHandler creates a new handler instance. shared may be nil, in which case
// every render gets its own in-process cache.
func NewHandler(cfg *Config, shared cache.Cache) *Handler {
	return &Handler{
		cfg:    cfg,
		shared: shared,
		client: fetch.NewHTTPClient(
			fetch.DefaultConfig().
				WithBaseURL(cfg.UpstreamURL).
				WithTimeout(cfg.FetchTimeout),
		),
	}
}

// Shutdown releases idle upstream connections
func (h *Handler) Shutdown() {
	h.client.CloseIdleConnections()
}

// RenderQuery handles GET /v1/render?url=...&url=...
func (h *Handler) RenderQuery(c *fiber.Ctx) error {
	var urls []string
	for _, v := range c.Context().QueryArgs().PeekMulti("url") {
		urls = append(urls, string(v))
	}
	return h.renderURLs(c, urls)
}

// RenderBody handles POST /v1/render
func (h *Handler) RenderBody(c *fiber.Ctx) error {
	var req RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponseWithDetails("Invalid request body", ErrCodeInvalidRequest, err.Error()),
		)
	}
	return h.renderURLs(c, req.URLs)
}

func (h *Handler) renderURLs(c *fiber.Ctx, urls []string) error {
	if err := h.validateURLs(urls); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponseWithDetails("Invalid render request", ErrCodeInvalidRequest, err.Error()),
		)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), time.Duration(h.cfg.RequestTimeout)*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := h.Render(ctx, utils.UUIDv4(), urls)
	if err != nil {
		recordRender("error", time.Since(start))
		telemetry.WithContext(ctx).WithError(err).Error("Render failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(
				NewErrorResponse("Render timed out", ErrCodeTimeout),
			)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponseWithDetails("Render failed", ErrCodeInternalError, err.Error()),
		)
	}

	recordRender("success", time.Since(start))
	return c.JSON(resp)
}

func (h *Handler) validateURLs(urls []string) error {
	if len(urls) == 0 {
		return errors.New("at least one url is required")
	}
	if len(urls) > h.cfg.MaxURLs {
		return fmt.Errorf("at most %d urls per render", h.cfg.MaxURLs)
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return errors.New("url cannot be empty")
		}
	}
	return nil
}

// Render runs a server pass that prefetches every URL into a render-scoped
// cache, serializes that cache, then hydrates a browser pass from the dump
// and returns the states its hooks settle on.
func (h *Handler) Render(ctx context.Context, id string, urls []string) (*RenderResponse, error) {
	start := time.Now()
	log := telemetry.WithContext(ctx).WithField("render_id", id)

	store, release := h.renderStore(id)
	defer release(context.WithoutCancel(ctx))

	server, err := fetch.NewRuntime(h.runtimeConfig(fetch.ModeServer))
	if err != nil {
		return nil, err
	}
	server.Configure(fetch.ConfigureOptions{Client: h.client, Cache: store})

	for _, u := range urls {
		fetch.Use[json.RawMessage](ctx, server, fetch.URL(u))
	}
	prefetched := server.Pending()

	entries, err := server.SerializeCache(ctx)
	if err != nil {
		return nil, err
	}
	dump, err := fetch.MarshalCache(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache: %w", err)
	}

	browser, err := fetch.NewRuntime(h.runtimeConfig(fetch.ModeBrowser))
	if err != nil {
		return nil, err
	}
	browser.Configure(fetch.ConfigureOptions{Client: h.client})
	if err := browser.LoadCache(ctx, entries); err != nil {
		return nil, err
	}

	hooks := make([]*fetch.Hook[json.RawMessage], len(urls))
	for i, u := range urls {
		hooks[i] = fetch.Use[json.RawMessage](ctx, browser, fetch.URL(u))
	}

	resp := &RenderResponse{
		RenderID: id,
		States:   make([]RenderedState, 0, len(urls)),
		Cache:    dump,
	}
	for i, hook := range hooks {
		if err := hook.Wait(ctx); err != nil {
			return nil, err
		}
		state := renderedState(urls[i], hook.State())
		if state.Error != "" {
			resp.Stats.Failed++
			recordRenderState("error")
		} else {
			recordRenderState("success")
		}
		resp.States = append(resp.States, state)
	}

	resp.Stats.Prefetched = prefetched
	resp.Stats.Serialized = len(entries)
	resp.Stats.DurationMs = time.Since(start).Milliseconds()

	log.WithFields(logrus.Fields{
		"urls":       len(urls),
		"serialized": len(entries),
		"failed":     resp.Stats.Failed,
		"duration":   resp.Stats.DurationMs,
	}).Info("Render completed")

	return resp, nil
}

func (h *Handler) runtimeConfig(mode fetch.Mode) *fetch.Config {
	cfg := fetch.DefaultConfig().
		WithBaseURL(h.cfg.UpstreamURL).
		WithTimeout(h.cfg.FetchTimeout).
		WithMode(mode)
	if h.cfg.Cache != nil {
		cfg.WithCacheSize(h.cfg.Cache.Size)
	}
	return cfg
}

// renderStore returns the cache a render's server pass writes to and a func
// that discards it. Redis renders share the pool under a per-render prefix.
func (h *Handler) renderStore(id string) (cache.Cache, func(context.Context)) {
	if rc, ok := h.shared.(*cache.RedisCache); ok {
		ns := rc.Namespace("render:" + id + ":")
		return ns, func(ctx context.Context) {
			if err := ns.Flush(ctx); err != nil {
				telemetry.WithContext(ctx).WithError(err).Warn("Failed to discard render cache")
			}
		}
	}

	size := 0
	if h.cfg.Cache != nil {
		size = h.cfg.Cache.Size
	}
	return cache.NewLRUCache(size, 0), func(context.Context) {}
}

func renderedState(url string, s fetch.State[json.RawMessage]) RenderedState {
	out := RenderedState{URL: url, Loading: s.Loading}
	if s.Response != nil {
		out.Status = s.Response.Status
	}
	if s.Error != nil {
		out.Error = s.Error.Error()
		var fe *fetch.Error
		if errors.As(s.Error, &fe) && fe.Status != 0 {
			out.Status = fe.Status
		}
		return out
	}
	if len(s.Data) > 0 {
		if json.Valid(s.Data) {
			out.Data = s.Data
		} else {
			out.Data, _ = json.Marshal(string(s.Data))
		}
	}
	return out
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	checks := make(map[string]string)

	if p, ok := h.shared.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["cache"] = "unhealthy: " + err.Error()
		} else {
			checks["cache"] = "healthy"
		}
	} else {
		checks["cache"] = "healthy"
	}

	status := "healthy"
	for _, check := range checks {
		if check != "healthy" {
			status = "unhealthy"
			break
		}
	}

	response := &HealthResponse{
		Status:  status,
		Service: "birb-fetch-api",
		Version: "1.0.0",
		Uptime:  time.Since(startTime).String(),
		Checks:  checks,
	}

	statusCode := fiber.StatusOK
	if status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

var startTime = time.Now()
