package middleware

import (
	"errors"

	"mentorbridge/internal/models"
	"mentorbridge/internal/token"

	"github.com/gofiber/fiber/v2"
)

// Verifier checks a bearer token and returns the user id it was issued for.
type Verifier interface {
	Verify(tokenString string) (string, error)
}

// TokenRequired enforces a valid bearer token. Both a missing and an invalid
// token answer 401 "Not authorized"; only the log line tells them apart.
func TokenRequired(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := token.FromAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
		if err == nil {
			var userID string
			userID, err = v.Verify(raw)
			if err == nil {
				SetUserID(c, userID)
				return c.Next()
			}
		}

		reason := "invalid token"
		if errors.Is(err, token.ErrNoToken) {
			reason = "no token"
		}
		Logger.WarnContext(c.UserContext(), "bearer authentication failed",
			"reason", reason,
			"path", c.Path(),
			"error", err.Error(),
		)
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Not authorized"))
	}
}
