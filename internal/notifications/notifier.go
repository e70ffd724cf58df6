// Package notifications publishes match events over Redis pub/sub and
// relays them to WebSocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentorbridge/internal/featureflags"
	"mentorbridge/internal/models"
	"mentorbridge/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published to a user's channel.
const (
	EventMatchRequested = "match.requested"
	EventMatchAccepted  = "match.accepted"
	EventMatchDeclined  = "match.declined"
)

// ErrUnavailable is returned by SubscribeUser when no Redis client is configured.
var ErrUnavailable = errors.New("notifications: redis not configured")

// MatchEvent is the JSON payload delivered on notifications:user:<id>.
type MatchEvent struct {
	Type          string             `json:"type"`
	MatchID       string             `json:"matchId"`
	Status        models.MatchStatus `json:"status"`
	ActorID       string             `json:"actorId"`
	ActorName     string             `json:"actorName,omitempty"`
	MatchedSkills []string           `json:"matchedSkills"`
	At            time.Time          `json:"at"`
}

// NewMatchEvent describes match from the point of view of actor.
func NewMatchEvent(eventType string, match *models.Match, actor *models.User) MatchEvent {
	ev := MatchEvent{
		Type:          eventType,
		MatchID:       match.ID,
		Status:        match.Status,
		MatchedSkills: match.MatchedSkills,
		At:            time.Now().UTC(),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.ActorName = actor.Name
	}
	return ev
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb   *redis.Client
	flags *featureflags.Manager
}

// NewNotifier creates a Notifier. A nil client turns publishing into a no-op;
// a nil flag manager publishes to nobody.
func NewNotifier(rdb *redis.Client, flags *featureflags.Manager) *Notifier {
	return &Notifier{rdb: rdb, flags: flags}
}

// Enabled reports whether events for userID would be published.
func (n *Notifier) Enabled(userID string) bool {
	return n != nil && n.rdb != nil && n.flags.Enabled(featureflags.MatchNotifications, userID)
}

// PublishUser sends ev to the user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID string, ev MatchEvent) error {
	if !n.Enabled(userID) {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	observability.NotificationsPublished.WithLabelValues(ev.Type).Inc()
	return nil
}

// SubscribeUser streams raw payloads from the user's channel. The returned
// channel is closed once ctx is cancelled.
func (n *Notifier) SubscribeUser(ctx context.Context, userID string) (<-chan string, error) {
	if n == nil || n.rdb == nil {
		return nil, ErrUnavailable
	}

	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	in := sub.Channel()
	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

// logPublishError keeps publish failures out of the request path.
func logPublishError(ctx context.Context, err error, userID string) {
	if err != nil {
		slog.WarnContext(ctx, "match notification not delivered",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// Notify publishes and logs instead of returning the error. Match decisions
// must not fail because a notification could not be sent.
func (n *Notifier) Notify(ctx context.Context, userID string, ev MatchEvent) {
	logPublishError(ctx, n.PublishUser(ctx, userID, ev), userID)
}
