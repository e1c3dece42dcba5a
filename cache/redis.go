package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/use-agent/reviewscope/models"
)

const redisKeyPrefix = "reviewscope:result:"

// Redis is a Store shared between replicas. Freshness is delegated to the
// key TTL; a Redis outage degrades to cache misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (*models.ScrapeResult, bool) {
	if r.ttl <= 0 {
		return nil, false
	}
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var result models.ScrapeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("redis cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, key string, result *models.ScrapeResult) {
	if result == nil || r.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		slog.Warn("redis cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		slog.Warn("redis cache put failed", "key", key, "error", err)
	}
}
