package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins restricts cross-origin callers. The API is consumed by
	// known collaborators (LMS, peer-assignment service), so deployments
	// should pin this to their hosts rather than leave it wide open.
	AllowOrigins string
}

// Register attaches the common middlewares used across the API.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(logger.New())
	// Only GET and POST are served; keep the method list that narrow.
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Application",
		AllowMethods: "GET,POST,OPTIONS",
	}))
}
