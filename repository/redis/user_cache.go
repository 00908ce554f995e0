package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

// UserCache is a read-through Redis cache in front of a UserRepository.
// Redis failures fall back to the backing repository.
type UserCache struct {
	base   repository.UserRepository
	client *redislib.Client
	ttl    time.Duration
}

// NewUserCache wraps base with a Redis cache. A zero ttl disables caching.
func NewUserCache(base repository.UserRepository, client *redislib.Client, ttl time.Duration) *UserCache {
	if base == nil {
		panic("redis.NewUserCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &UserCache{base: base, client: client, ttl: ttl}
}

func (c *UserCache) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := c.load(ctx, id); ok {
		return user, nil
	}

	user, err := c.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, user)
	return user, nil
}

func (c *UserCache) Upsert(ctx context.Context, user *domain.User) error {
	if err := c.base.Upsert(ctx, user); err != nil {
		return err
	}
	c.evict(ctx, user.ID)
	return nil
}

// List always reads the backing repository.
func (c *UserCache) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return c.base.List(ctx, limit, offset)
}

func (c *UserCache) Delete(ctx context.Context, id string) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *UserCache) load(ctx context.Context, id string) (*domain.User, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, userCacheKey(id)).Bytes()
	if err != nil {
		if err != redislib.Nil {
			_ = c.client.Del(ctx, userCacheKey(id)).Err()
		}
		return nil, false
	}
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		_ = c.client.Del(ctx, userCacheKey(id)).Err()
		return nil, false
	}
	return &user, true
}

func (c *UserCache) store(ctx context.Context, user *domain.User) {
	if c.client == nil || c.ttl == 0 || user == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, userCacheKey(user.ID), data, c.ttl).Err()
}

func (c *UserCache) evict(ctx context.Context, id string) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, userCacheKey(id)).Err()
}

func userCacheKey(id string) string {
	return "user:" + id
}

var _ repository.UserRepository = (*UserCache)(nil)
