package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/use-agent/reviewscope/models"
)

// Store is a keyed result cache with time-based freshness.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a copy of a fresh entry. Stale or absent entries are misses.
	Get(ctx context.Context, key string) (*models.ScrapeResult, bool)

	// Put stores a copy of result, replacing any existing entry.
	Put(ctx context.Context, key string, result *models.ScrapeResult)
}

// Key derives the cache key of a query: the URL-escaped normalized form,
// so "Example Cafe", "example%20cafe" and " EXAMPLE  CAFE " share one entry.
func Key(query string) string {
	return url.QueryEscape(models.NormalizeQuery(query))
}

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    *models.ScrapeResult
	createdAt time.Time
}

// Memory is an in-process LRU cache of scrape results.
// Expiry is lazy: a stale entry is reported as a miss and stays in place
// until it is overwritten or evicted by capacity.
type Memory struct {
	store *lru.Cache[string, *entry]
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// New creates a Memory cache holding at most maxEntries results, each
// fresh for ttl after it was stored. A ttl <= 0 makes every lookup a miss.
func New(maxEntries int, ttl time.Duration, opts ...Option) (*Memory, error) {
	store, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	m := &Memory{store: store, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (*models.ScrapeResult, bool) {
	if m.ttl <= 0 {
		return nil, false
	}
	e, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.createdAt) > m.ttl {
		return nil, false
	}
	return e.result.Clone(), true
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, result *models.ScrapeResult) {
	if result == nil {
		return
	}
	m.store.Add(key, &entry{
		result:    result.Clone(),
		createdAt: m.now(),
	})
}

// Len returns the number of stored entries, fresh or stale.
func (m *Memory) Len() int {
	return m.store.Len()
}
