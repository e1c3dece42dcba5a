package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/use-agent/reviewscope/config"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, ttl), mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, _ := newTestRedis(t, time.Hour)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty store")
	}

	count := 42
	res := sampleResult("Ann")
	res.Business.ReviewCount = &count
	store.Put(ctx, "k", res)

	got, ok := store.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Business.Name != "Example Cafe" || got.Reviews[0].Author != "Ann" {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.Business.ReviewCount == nil || *got.Business.ReviewCount != 42 {
		t.Errorf("review count = %v", got.Business.ReviewCount)
	}
}

func TestRedisExpires(t *testing.T) {
	store, mr := newTestRedis(t, time.Minute)
	ctx := context.Background()

	store.Put(ctx, "k", sampleResult("Ann"))
	mr.FastForward(2 * time.Minute)

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestRedisOutageIsAMiss(t *testing.T) {
	store, mr := newTestRedis(t, time.Hour)
	ctx := context.Background()

	store.Put(ctx, "k", sampleResult("Ann"))
	mr.Close()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
}

func TestRedisCorruptEntryIsAMiss(t *testing.T) {
	store, mr := newTestRedis(t, time.Hour)
	if err := mr.Set(redisKeyPrefix+"k", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("expected miss on corrupt entry")
	}
}

func TestOpenPicksBackend(t *testing.T) {
	ctx := context.Background()

	store, kind, closeFn, err := Open(ctx, config.CacheConfig{TTL: time.Hour, MaxEntries: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if kind != KindMemory {
		t.Errorf("kind = %q, want %q", kind, KindMemory)
	}
	if _, ok := store.(*Memory); !ok {
		t.Errorf("store = %T, want *Memory", store)
	}

	mr := miniredis.RunT(t)
	store, kind, closeFn, err = Open(ctx, config.CacheConfig{TTL: time.Hour, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if kind != KindRedis {
		t.Errorf("kind = %q, want %q", kind, KindRedis)
	}
	store.Put(ctx, "k", sampleResult("Ann"))
	if !mr.Exists(redisKeyPrefix + "k") {
		t.Error("entry should land in redis")
	}
}

func TestOpenFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, _, _, err := Open(context.Background(), config.CacheConfig{TTL: time.Hour, RedisAddr: addr}); err == nil {
		t.Fatal("expected connection error")
	}
}
