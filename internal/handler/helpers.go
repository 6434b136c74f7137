package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/middleware"
	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

// translateServiceError maps the engine error taxonomy onto the response
// envelope. Validation and not-found messages are reported verbatim; anything
// else is a store failure the caller should not see details of.
func translateServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.SendError(c, fiber.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrSubmissionNotFound.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func moderatorIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
