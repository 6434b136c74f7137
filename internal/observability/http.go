package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		// A broken collector should degrade the scrape, not fail it.
		ErrorHandling: promhttp.ContinueOnError,
	})
	return adaptor.HTTPHandler(handler)
}
