package server

import (
	"mentorbridge/internal/middleware"
	"mentorbridge/internal/models"
	"mentorbridge/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SessionRequired sends visitors without a logged-in session to /login.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.currentSession(c)
		if err != nil {
			return err
		}
		userID := session.UserID(sess)
		if userID == "" {
			return s.redirectWithFlash(c, session.FlashError, "Please log in to view this resource", "/login")
		}
		middleware.SetUserID(c, userID)
		return c.Next()
	}
}

// AdminRequired sends non-admin sessions back to /dashboard.
// Must be placed after SessionRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.currentSession(c)
		if err != nil {
			return err
		}
		if session.Role(sess) != models.RoleAdmin {
			middleware.Logger.WarnContext(c.UserContext(), "admin route denied",
				"path", c.Path(),
				"user_id", session.UserID(sess),
			)
			return s.redirectWithFlash(c, session.FlashError, "Access denied. Admin privileges required.", "/dashboard")
		}
		return c.Next()
	}
}
