package repository

import (
	"context"

	"mentorbridge/internal/cache"
	"mentorbridge/internal/models"

	"github.com/redis/go-redis/v9"
)

type cachedUserRepository struct {
	UserRepository
	rdb *redis.Client
}

// NewCachedUserRepository adds Redis cache-aside reads by id to any
// UserRepository. A nil client returns inner unchanged.
func NewCachedUserRepository(inner UserRepository, rdb *redis.Client) UserRepository {
	if rdb == nil {
		return inner
	}
	return &cachedUserRepository{UserRepository: inner, rdb: rdb}
}

// cachedUser carries the password hash through the cache, which the User
// JSON encoding deliberately omits.
type cachedUser struct {
	models.User
	PasswordHash string `json:"passwordHash"`
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var entry cachedUser
	err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &entry, cache.UserTTL, func() error {
		user, err := r.UserRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		entry = cachedUser{User: *user, PasswordHash: user.Password}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user := entry.User
	user.Password = entry.PasswordHash
	return &user, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.Update(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, r.rdb, user.ID)
	return nil
}
