package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// StatusHandler exposes the per-student problem status listing.
type StatusHandler struct {
	service service.StatusService
	logger  zerolog.Logger
}

// NewStatusHandler builds a status handler instance.
func NewStatusHandler(service service.StatusService, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		logger:  logger.With().Str("component", "status_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StatusHandler) Register(router fiber.Router) {
	router.Get("/problems", h.problemList)
}

func (h *StatusHandler) problemList(c *fiber.Ctx) error {
	listing, err := h.service.ProblemList(c.UserContext(), c.Query("course_id"), c.Query("student_id"))
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem list retrieved", listing)
}
