package server

import (
	"context"

	"mentorbridge/internal/cache"
	"mentorbridge/internal/middleware"
	"mentorbridge/internal/models"
	"mentorbridge/internal/notifications"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var wsLog = observability.NewWSLogger("notifications")

// IssueNotificationTicket handles POST /users/notifications/ticket
// @Summary Issue a WebSocket ticket
// @Description Single-use ticket, valid for 30 seconds, for GET /ws/notifications?ticket=
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{ticket=string}
// @Failure 503 {object} models.ErrorResponse
// @Router /users/notifications/ticket [post]
func (s *Server) IssueNotificationTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Message: "Notifications unavailable"})
	}
	ticket, err := cache.IssueTicket(c.UserContext(), s.redis, middleware.UserID(c))
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ticket": ticket})
}

// NotificationsUpgrade authenticates a feed request before the upgrade,
// by ticket when one is given and by session cookie otherwise.
func (s *Server) NotificationsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Message: "Notifications unavailable"})
	}

	var userID string
	if ticket := c.Query("ticket"); ticket != "" {
		uid, err := cache.ConsumeTicket(c.UserContext(), s.redis, ticket)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "websocket ticket rejected", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Message: "Not authorized"})
		}
		userID = uid
	} else {
		sess, err := s.currentSession(c)
		if err != nil {
			return err
		}
		userID = session.UserID(sess)
	}
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Message: "Not authorized"})
	}

	middleware.SetUserID(c, userID)
	return c.Next()
}

// NotificationsFeed streams the user's match events until either side closes.
func (s *Server) NotificationsFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(middleware.LocalUserID).(string)
		ctx, cancel := context.WithCancel(s.shutdownCtx)
		defer cancel()

		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		payloads, err := s.notifier.SubscribeUser(ctx, userID)
		if err != nil {
			wsLog.LogDisconnect(ctx, userID, "subscribe_failed")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"notifications unavailable"}`))
			_ = conn.Close()
			return
		}

		wsLog.LogConnect(ctx, userID)
		client := notifications.NewClient(conn, userID)
		reason := client.Serve(ctx, payloads)
		wsLog.LogDisconnect(ctx, userID, reason)
	})
}
