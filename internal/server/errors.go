package server

import (
	"errors"

	"mentorbridge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler answers JSON on /users and an error page elsewhere. Causes of
// 5xx responses are logged, never shown.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		if status < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		)
	}

	if isAPIRequest(c) {
		return c.Status(status).JSON(fiber.Map{"message": message})
	}

	c.Status(status)
	if rerr := c.Render("error", fiber.Map{
		"title":   message,
		"status":  status,
		"message": message,
	}); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// NotFound is the catch-all for unmatched routes.
func (s *Server) NotFound(c *fiber.Ctx) error {
	if isAPIRequest(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	}
	return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
		"title":   "Page not found",
		"status":  fiber.StatusNotFound,
		"message": "Page not found",
	})
}
