package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/use-agent/reviewscope/config"
)

// Store kinds reported by Open.
const (
	KindMemory = "memory"
	KindRedis  = "redis"
)

// Open builds the Store described by cfg: Redis when RedisAddr is set,
// an in-process LRU otherwise. The returned close func is never nil.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, string, func() error, error) {
	if cfg.RedisAddr == "" {
		m, err := New(cfg.MaxEntries, cfg.TTL)
		if err != nil {
			return nil, "", nil, err
		}
		return m, KindMemory, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := NewRedis(client, cfg.TTL)
	if err := store.Ping(ctx); err != nil {
		client.Close()
		return nil, "", nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return store, KindRedis, client.Close, nil
}
