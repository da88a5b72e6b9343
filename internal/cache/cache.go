package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ticketsync/internal/models"
)

const (
	userKeyPrefix    = "ticketsync:user:"
	webhookKeyPrefix = "ticketsync:webhook:"
)

// RedisClient is the subset of redis operations the cache uses. Tests swap in
// a map-backed implementation.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Cache holds cross-run state in redis: user profiles already fetched from
// the upstream API, and a dedupe window for webhook deliveries.
type Cache struct {
	client  RedisClient
	userTTL time.Duration
	hookTTL time.Duration
}

func New(client RedisClient) *Cache {
	return &Cache{
		client:  client,
		userTTL: 24 * time.Hour,
		hookTTL: 5 * time.Minute,
	}
}

// GetUser returns a cached user profile, or (nil, nil) on a miss. Cache
// errors degrade to a miss; the caller just re-fetches.
func (c *Cache) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf("%s%d", userKeyPrefix, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get user %d: %w", userID, err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("cache decode user %d: %w", userID, err)
	}
	return &user, nil
}

func (c *Cache) PutUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%d", userKeyPrefix, user.ID)
	return c.client.Set(ctx, key, string(raw), c.userTTL).Err()
}

// MarkWebhook records a webhook delivery and reports whether this is the
// first time it was seen inside the dedupe window. Replayed deliveries get
// acknowledged without re-fetching upstream.
func (c *Cache) MarkWebhook(ctx context.Context, deliveryKey string) (bool, error) {
	first, err := c.client.SetNX(ctx, webhookKeyPrefix+deliveryKey, "1", c.hookTTL).Result()
	if err != nil {
		return false, fmt.Errorf("cache mark webhook %s: %w", deliveryKey, err)
	}
	return first, nil
}
