package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openassess/grading-controller/internal/utils"
)

// RequireStaff rejects requests whose token does not carry the staff claim.
// Moderation and staff notification surfaces sit behind this check.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, ok := c.Locals("is_staff").(bool)
		if !ok || !staff {
			return utils.SendError(c, fiber.StatusForbidden, "staff access required")
		}

		return c.Next()
	}
}
