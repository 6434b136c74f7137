package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// ETAHandler exposes queue-delay estimates for a problem location.
type ETAHandler struct {
	service service.ETAService
	logger  zerolog.Logger
}

// NewETAHandler builds an ETA handler instance.
func NewETAHandler(service service.ETAService, logger zerolog.Logger) *ETAHandler {
	return &ETAHandler{
		service: service,
		logger:  logger.With().Str("component", "eta_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ETAHandler) Register(router fiber.Router) {
	router.Get("", h.estimate)
}

func (h *ETAHandler) estimate(c *fiber.Ctx) error {
	location := c.Query("location")

	estimate, err := h.service.Estimate(c.UserContext(), location)
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "eta estimated", estimate)
}
