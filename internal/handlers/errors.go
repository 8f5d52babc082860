package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler converts any error escaping a handler into the JSON
// envelope the API speaks everywhere: {success, message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
