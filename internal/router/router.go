package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openassess/grading-controller/internal/config"
	"github.com/openassess/grading-controller/internal/handler"
	"github.com/openassess/grading-controller/internal/middleware"
	"github.com/openassess/grading-controller/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradeHandler        *handler.GradeHandler
	ETAHandler          *handler.ETAHandler
	NotificationHandler *handler.NotificationHandler
	StatusHandler       *handler.StatusHandler
	ModerationHandler   *handler.ModerationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradeHandler != nil {
		grades := api.Group("/grades", jwtMiddleware,
			middleware.RateLimit("grade_ingest", cfg.IngestRateLimit, cfg.IngestRateWindow))
		deps.GradeHandler.Register(grades)
	}

	if deps.ETAHandler != nil {
		eta := api.Group("/eta", jwtMiddleware)
		deps.ETAHandler.Register(eta)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.StatusHandler != nil {
		status := api.Group("/status", jwtMiddleware)
		deps.StatusHandler.Register(status)
	}

	// Moderation routes are staff-only.
	if deps.ModerationHandler != nil {
		moderation := api.Group("/moderation", jwtMiddleware, middleware.RequireStaff())
		deps.ModerationHandler.Register(moderation)
	}
}
