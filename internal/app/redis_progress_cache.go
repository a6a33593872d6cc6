package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merchly/dashboard-service/internal/domain"
)

// RedisProgressCache caches derived compliance progress per user. Cache
// failures are silent: the service falls back to the merchant record,
// which is the source of truth.
type RedisProgressCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisProgressCache creates a progress cache over the given client.
func NewRedisProgressCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisProgressCache {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "dashboard:compliance"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RedisProgressCache{
		client: client,
		prefix: trimmedPrefix,
		ttl:    ttl,
	}
}

func (c *RedisProgressCache) key(userID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

// Get returns the cached progress for the user, if present.
func (c *RedisProgressCache) Get(ctx context.Context, userID string) (*domain.ComplianceProgress, bool) {
	if c == nil || c.client == nil || userID == "" {
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}

	var progress domain.ComplianceProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, false
	}
	return &progress, true
}

// Set stores the derived progress with the configured TTL.
func (c *RedisProgressCache) Set(ctx context.Context, userID string, progress domain.ComplianceProgress) {
	if c == nil || c.client == nil || userID == "" {
		return
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(userID), raw, c.ttl).Err()
}

// Clear invalidates the cached progress. Called on every step write.
func (c *RedisProgressCache) Clear(ctx context.Context, userID string) {
	if c == nil || c.client == nil || userID == "" {
		return
	}
	_ = c.client.Del(ctx, c.key(userID)).Err()
}
