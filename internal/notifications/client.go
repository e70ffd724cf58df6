package notifications

import (
	"context"
	"log/slog"
	"time"

	"mentorbridge/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The feed is server-to-client; peers only send control frames.
	maxMessageSize = 512
)

// Client is a notification feed connection for one user.
type Client struct {
	Conn   *websocket.Conn
	UserID string

	// Buffered channel of outbound messages.
	Send chan []byte
}

// NewClient creates a new Client instance
func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}
}

// Serve relays payloads to the connection until the peer leaves, the
// subscription ends, or ctx is cancelled. It returns the disconnect reason.
func (c *Client) Serve(ctx context.Context, payloads <-chan string) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		c.ReadPump()
		close(closed)
		cancel()
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-payloads:
				if !ok {
					cancel()
					return
				}
				c.TrySend([]byte(p))
			}
		}
	}()

	c.WritePump(ctx)

	select {
	case <-closed:
		return "peer_closed"
	default:
		return "server_closed"
	}
}

// ReadPump drains control frames until the connection fails.
func (c *Client) ReadPump() {
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("notification feed read error", slog.String("user_id", c.UserID), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump writes queued messages and keepalive pings until ctx ends.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message, dropping it when the client is not keeping up.
func (c *Client) TrySend(message []byte) {
	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
		slog.Warn("notification feed buffer full, dropped message", slog.String("user_id", c.UserID))
	}
}
