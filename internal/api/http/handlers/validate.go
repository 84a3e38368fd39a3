package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

var validate = validator.New()

// parseBody decodes and validates a request payload in one place, so every
// operation sees an explicit, already-validated input struct.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(req); err != nil {
		details := map[string]any{}
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				details[fe.Field()] = fe.Tag()
			}
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}
