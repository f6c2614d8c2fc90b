package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes for Slack user lookups
	emailKeyPrefix = "slackuser:email:"
	nameKeyPrefix  = "slackuser:name:"
	// Default TTL for cached lookups (12 hours)
	defaultTTL = 12 * time.Hour
)

// UserCache memoizes Slack directory lookups (email -> user ID, user ID ->
// display name) in Redis. Misses and Redis failures both fall through to
// the live API; the cache is never load-bearing.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &UserCache{client: client, ttl: ttl}
}

func (c *UserCache) UserIDByEmail(ctx context.Context, email string) (string, bool) {
	return c.get(ctx, emailKeyPrefix+email)
}

func (c *UserCache) SetUserIDByEmail(ctx context.Context, email, userID string) {
	c.set(ctx, emailKeyPrefix+email, userID)
}

func (c *UserCache) DisplayName(ctx context.Context, userID string) (string, bool) {
	return c.get(ctx, nameKeyPrefix+userID)
}

func (c *UserCache) SetDisplayName(ctx context.Context, userID, name string) {
	c.set(ctx, nameKeyPrefix+userID, name)
}

func (c *UserCache) get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("[UserCache] get %s: %v", key, err)
		return "", false
	}
	return val, true
}

func (c *UserCache) set(ctx context.Context, key, val string) {
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		log.Printf("[UserCache] set %s: %v", key, err)
	}
}
