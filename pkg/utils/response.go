package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// SuccessWithWarning reports a completed operation that had a non-fatal
// side failure, such as a storage object that could not be released.
func SuccessWithWarning(c *fiber.Ctx, status int, data interface{}, warning string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"warning": warning,
	})
}
