// FilePath: internal/tiercache/tiercache.go

// Package tiercache caches user subscription tiers in redis so the read
// gateway does not hit the profile table on every query. Entries expire after
// a few minutes, which bounds how long a tier change takes to propagate.
package tiercache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/terrasense/hub/internal/config"
	"github.com/terrasense/hub/internal/models"
)

const defaultTTL = 5 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client, ttl: defaultTTL}
}

func key(userID string) string {
	return "tier:" + userID
}

// Get returns the cached tier for a user and whether it was present.
func (c *Cache) Get(ctx context.Context, userID string) (models.SubscriptionTier, bool, error) {
	val, err := c.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return models.SubscriptionTier(val), true, nil
}

// Set stores the tier for a user with the cache TTL.
func (c *Cache) Set(ctx context.Context, userID string, tier models.SubscriptionTier) error {
	return c.client.Set(ctx, key(userID), string(tier), c.ttl).Err()
}

// Invalidate drops a user's cached tier, e.g. after a subscription change.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, key(userID)).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
