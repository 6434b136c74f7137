package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// ModerationHandler exposes the flagged-submission listing and moderator
// actions. Routes are expected to sit behind the staff RBAC middleware.
type ModerationHandler struct {
	service service.ModerationService
	logger  zerolog.Logger
}

// NewModerationHandler builds a moderation handler instance.
func NewModerationHandler(service service.ModerationService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ModerationHandler) Register(router fiber.Router) {
	router.Get("/flagged", h.listFlagged)
	router.Post("/actions", h.takeAction)
}

func (h *ModerationHandler) listFlagged(c *fiber.Ctx) error {
	listing, err := h.service.ListFlagged(c.UserContext(), c.Query("course_id"))
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "flagged submissions retrieved", listing)
}

func (h *ModerationHandler) takeAction(c *fiber.Ctx) error {
	var payload dto.ModerationActionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.TakeAction(c.UserContext(), payload, moderatorIDFromContext(c))
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "moderation action applied", result)
}
