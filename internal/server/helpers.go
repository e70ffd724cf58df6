package server

import (
	"strings"

	"mentorbridge/internal/middleware"
	"mentorbridge/internal/models"
	"mentorbridge/internal/session"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

const localSession = "session"

// currentSession loads the browser session once per request.
func (s *Server) currentSession(c *fiber.Ctx) (*fibersession.Session, error) {
	if sess, ok := c.Locals(localSession).(*fibersession.Session); ok && sess != nil {
		return sess, nil
	}
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, err
	}
	c.Locals(localSession, sess)
	return sess, nil
}

// saveSession writes the session back. Fiber recycles the session on Save,
// so it must be the last use in the request. A fresh session holding nothing
// is not stored and gets no cookie.
func (s *Server) saveSession(c *fiber.Ctx, sess *fibersession.Session) error {
	c.Locals(localSession, nil)
	if sess.Fresh() && len(sess.Keys()) == 0 {
		return nil
	}
	return sess.Save()
}

// redirectWithFlash queues a flash message and redirects.
func (s *Server) redirectWithFlash(c *fiber.Ctx, kind, msg, to string) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return err
	}
	session.SetFlash(sess, kind, msg)
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	return c.Redirect(to)
}

// render executes a page inside the main layout with the session user and
// any pending flash messages bound.
func (s *Server) render(c *fiber.Ctx, page, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["title"] = title

	sess, err := s.currentSession(c)
	if err != nil {
		return err
	}
	if _, ok := data["user"]; !ok {
		if uid := session.UserID(sess); uid != "" {
			if user, err := s.profileService.GetProfile(c.UserContext(), uid); err == nil {
				data["user"] = user
			}
		}
	}
	for kind, msg := range session.TakeFlashes(sess) {
		data[kind] = msg
	}
	if err := s.saveSession(c, sess); err != nil {
		return err
	}
	return c.Render(page, data)
}

// isAPIRequest reports whether the request belongs to the JSON surface.
func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/users")
}

// respondError writes err on the JSON surface, logging internal causes.
func respondError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(),
			"error", err.Error(),
		)
	}
	return models.RespondWithError(c, status, err)
}

// flashError maps a service error to a flash message for the browser surface.
func flashError(c *fiber.Ctx, err error) string {
	if models.HTTPStatus(err) >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(),
			"error", err.Error(),
		)
	}
	return models.PublicMessage(err)
}
