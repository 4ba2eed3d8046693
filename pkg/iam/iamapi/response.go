package iamapi

import "github.com/gofiber/fiber/v2"

// respond wraps every successful JSON payload the same way, with the HTTP
// status echoed in the body.
func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"data":   data,
		"status": status,
	})
}
