package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// GradeHandler exposes the grade ingestion endpoint to external grading
// workers.
type GradeHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradeHandler builds a grade handler instance.
func NewGradeHandler(service service.GradingService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("", h.ingest)
}

func (h *GradeHandler) ingest(c *fiber.Ctx) error {
	var payload dto.GradeIngestRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.ApplyGrade(c.UserContext(), payload)
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade recorded", receipt)
}
