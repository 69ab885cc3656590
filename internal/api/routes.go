package api

import (
	"fmt"
	"time"

	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// NewApp builds the fiber application with middleware and routes installed
func NewApp(cfg *Config, handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Birb Fetch API",
		ErrorHandler:          ErrorHandler,
		ReadTimeout:           time.Duration(cfg.RequestTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.RequestTimeout) * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	SetupMiddleware(app)
	SetupRoutes(app, handler, cfg)
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, handler *Handler, cfg *Config) {
	v1 := app.Group("/v1")
	if cfg.APIKey != "" {
		v1.Use(ValidateAPIKey(cfg.APIKey))
	}

	v1.Get("/render", handler.RenderQuery)
	v1.Post("/render", handler.RenderBody)

	// Health and metrics endpoints (no auth required)
	app.Get("/health", handler.Health)
	app.Get(cfg.MetricsPath, adaptor.HTTPHandler(telemetry.PrometheusHandler()))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "birb-fetch-api",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": fiber.Map{
				"render":  "GET /v1/render?url=..., POST /v1/render",
				"health":  "GET /health",
				"metrics": fmt.Sprintf("GET %s", cfg.MetricsPath),
			},
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse("Endpoint not found", ErrCodeNotFound),
		)
	})
}
