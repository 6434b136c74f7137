package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/openassess/grading-controller/internal/middleware"
)

func TestRegisterPinsCORSToConfiguredOrigins(t *testing.T) {
	app := fiber.New()
	middleware.Register(app, middleware.Config{AllowOrigins: "https://lms.example.edu"})
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(fiber.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://lms.example.edu")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodGet)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "https://lms.example.edu", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET,POST,OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestRegisterRejectsUnlistedOrigin(t *testing.T) {
	app := fiber.New()
	middleware.Register(app, middleware.Config{AllowOrigins: "https://lms.example.edu"})
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(fiber.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodGet)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
