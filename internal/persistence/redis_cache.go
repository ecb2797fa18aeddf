package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const assignableUsersKey = "complaints:assignable-users"

// UserCache stores the assignable users list in Redis as JSON.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache returns nil when r has no client, which callers treat as
// caching disabled.
func NewUserCache(r *Redis, ttl time.Duration) *UserCache {
	if r == nil || r.Client == nil || ttl <= 0 {
		return nil
	}
	return &UserCache{client: r.Client, ttl: ttl}
}

// GetAssignable returns the cached list and whether it was present.
func (c *UserCache) GetAssignable(ctx context.Context) ([]domain.PublicUser, bool, error) {
	raw, err := c.client.Get(ctx, assignableUsersKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var users []domain.PublicUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false, err
	}
	return users, true, nil
}

// SetAssignable replaces the cached list.
func (c *UserCache) SetAssignable(ctx context.Context, users []domain.PublicUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, assignableUsersKey, raw, c.ttl).Err()
}

// InvalidateAssignable drops the cached list.
func (c *UserCache) InvalidateAssignable(ctx context.Context) error {
	return c.client.Del(ctx, assignableUsersKey).Err()
}
