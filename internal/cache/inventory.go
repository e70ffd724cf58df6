package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix   = "user:"
	TicketKeyPrefix = "ws_ticket:"
)

const (
	UserTTL   = 5 * time.Minute
	TicketTTL = 30 * time.Second
)

func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

func TicketKey(ticket string) string {
	return TicketKeyPrefix + ticket
}

// Invalidate drops key. A nil client is a no-op.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, rdb *redis.Client, userID string) {
	Invalidate(ctx, rdb, UserKey(userID))
}
