package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTicketInvalid is returned for unknown, expired or already used tickets.
var ErrTicketInvalid = errors.New("invalid or expired ticket")

// IssueTicket stores a single-use WebSocket ticket for userID.
func IssueTicket(ctx context.Context, rdb *redis.Client, userID string) (string, error) {
	if rdb == nil {
		return "", fmt.Errorf("tickets need redis")
	}
	ticket := uuid.NewString()
	if err := rdb.Set(ctx, TicketKey(ticket), userID, TicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// ConsumeTicket atomically reads and deletes a ticket, returning its user id.
func ConsumeTicket(ctx context.Context, rdb *redis.Client, ticket string) (string, error) {
	if rdb == nil || ticket == "" {
		return "", ErrTicketInvalid
	}
	userID, err := rdb.GetDel(ctx, TicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTicketInvalid
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
