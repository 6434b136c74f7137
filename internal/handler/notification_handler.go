package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// NotificationHandler exposes the combined-notification polling endpoint.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler builds a notification handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("", h.combined)
}

func (h *NotificationHandler) combined(c *fiber.Ctx) error {
	query := dto.NotificationQuery{
		CourseID:       c.Query("course_id"),
		StudentID:      c.Query("student_id"),
		LastTimeViewed: c.Query("last_time_viewed"),
	}

	if raw := c.Query("user_is_staff"); raw != "" {
		staff, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "user_is_staff must be a boolean")
		}
		query.UserIsStaff = &staff
	}

	summary, err := h.service.Combined(c.UserContext(), query)
	if err != nil {
		return translateServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notifications checked", summary)
}
