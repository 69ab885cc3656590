package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// SetupMiddleware configures all middleware for the application
func SetupMiddleware(app *fiber.App) {
	app.Use(requestid.New())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))

	app.Use(telemetry.FiberMetricsMiddleware())
	app.Use(telemetry.FiberLoggingMiddleware())
	app.Use(timingMiddleware())
}

// ErrorHandler renders errors returned by handlers as ErrorResponse JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errCode := ErrCodeInternalError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	switch code {
	case fiber.StatusNotFound:
		errCode = ErrCodeNotFound
	case fiber.StatusBadRequest:
		errCode = ErrCodeInvalidRequest
	case fiber.StatusRequestTimeout:
		errCode = ErrCodeTimeout
	}

	telemetry.WithContext(c.UserContext()).WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"method": c.Method(),
	}).Error("Request error")

	return c.Status(code).JSON(NewErrorResponse(message, errCode))
}

// timingMiddleware adds request timing headers
func timingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		c.Set("X-Response-Time", fmt.Sprintf("%d ms", time.Since(start).Milliseconds()))

		return err
	}
}

// ValidateAPIKey creates a middleware for API key validation
func ValidateAPIKey(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey != "" {
			key := c.Get("X-API-Key")
			if key == "" {
				auth := c.Get("Authorization")
				if len(auth) > 7 && auth[:7] == "Bearer " {
					key = auth[7:]
				}
			}

			if key != apiKey {
				return c.Status(fiber.StatusUnauthorized).JSON(
					NewErrorResponse("Invalid or missing API key", ErrCodeUnauthorized),
				)
			}
		}
		return c.Next()
	}
}
