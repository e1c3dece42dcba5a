package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/reviewscope/cache"
	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/engine"
	"github.com/use-agent/reviewscope/metrics"
	"github.com/use-agent/reviewscope/models"
)

// Scraper answers review queries from the cache or by driving a fresh
// browser session per attempt. It is safe for concurrent use; concurrent
// requests share only the cache.
type Scraper struct {
	launcher     Launcher
	fingerprints *FingerprintSelector
	navigator    *Navigator
	collector    *Collector
	selectors    SelectorSet
	orchestrator *engine.Orchestrator
	store        cache.Store
	metrics      *metrics.Metrics

	maxResults     int
	searchTemplate string

	// stepTimeout bounds a snapshot; attemptTimeout bounds a whole attempt.
	stepTimeout    time.Duration
	attemptTimeout time.Duration

	// slots bounds concurrently open browsers; active counts them.
	slots  chan struct{}
	active atomic.Int32

	now func() time.Time
}

// New wires a Scraper. m may be nil.
func New(cfg *config.Config, l Launcher, selectors SelectorSet, store cache.Store, m *metrics.Metrics) *Scraper {
	maxSessions := cfg.Browser.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1
	}
	attemptTimeout := cfg.Retry.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = config.DefaultAttemptTimeout
	}
	collector := NewCollector(selectors, cfg.Scroll)
	return &Scraper{
		launcher:     l,
		fingerprints: NewFingerprintSelector(nil),
		navigator:    NewNavigator(cfg.Navigation),
		collector:    collector,
		selectors:    selectors,
		orchestrator: engine.NewOrchestrator(engine.Options{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
		}, m),
		store:          store,
		metrics:        m,
		maxResults:     cfg.Scroll.MaxResults,
		searchTemplate: cfg.Target.SearchURLTemplate,
		stepTimeout:    collector.stepTimeout,
		attemptTimeout: attemptTimeout,
		slots:          make(chan struct{}, maxSessions),
		now:            time.Now,
	}
}

// Stats reports how many browser sessions are open right now.
func (s *Scraper) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    cap(s.slots),
		ActiveSessions: int(s.active.Load()),
	}
}

// Reviews returns the business summary and reviews for req.Query along
// with the cache status ("hit", "miss" or "bypass").
//
// An empty or malformed query fails with InvalidQuery before any browser
// is started. With SkipCache the lookup is skipped but a fresh result
// still replaces the cached one.
func (s *Scraper) Reviews(ctx context.Context, req models.ReviewsRequest) (*models.ScrapeResult, string, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	query := strings.TrimSpace(req.Query)
	if err := validateQuery(query); err != nil {
		err.RequestID = requestID
		s.metrics.IncScrape(err.Code)
		slog.Info("rejected query", "request_id", requestID, "query", req.Query, "error", err)
		return nil, "", err
	}

	key := cache.Key(query)
	status := models.CacheMiss
	if req.SkipCache {
		status = models.CacheBypass
	} else if cached, ok := s.store.Get(ctx, key); ok {
		s.metrics.IncCacheLookup(models.CacheHit)
		slog.Info("cache hit", "request_id", requestID, "query", query, "reviews", len(cached.Reviews))
		return cached, models.CacheHit, nil
	}
	s.metrics.IncCacheLookup(status)

	target := s.targetURL(query)
	start := time.Now()

	result, err := s.orchestrator.Run(ctx, requestID, func(ctx context.Context, attempt int) (*models.ScrapeResult, error) {
		return s.attempt(ctx, requestID, attempt, query, target)
	})
	if err != nil {
		s.metrics.IncScrape(models.CodeOf(err))
		slog.Error("scrape failed",
			"request_id", requestID, "query", query, "url", target,
			"code", models.CodeOf(err), "error", err)
		return nil, status, err
	}

	s.store.Put(ctx, key, result)

	s.metrics.IncScrape("ok")
	s.metrics.AddReviews(len(result.Reviews))
	s.metrics.ObserveScrape(time.Since(start))
	slog.Info("scrape complete",
		"request_id", requestID, "query", query, "reviews", len(result.Reviews),
		"attempts", result.Attempts, "cache", status, "duration", time.Since(start))

	return result, status, nil
}

// attempt runs one full session: open, navigate, extract, close.
// The session is closed exactly once whatever happens after it opens.
func (s *Scraper) attempt(ctx context.Context, requestID string, attempt int, query, target string) (*models.ScrapeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	fp := s.fingerprints.Choose()
	slog.Debug("attempt starting",
		"request_id", requestID, "attempt", attempt, "url", target,
		"viewport", fmt.Sprintf("%dx%d", fp.Width, fp.Height))

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "no browser slot became free in time")
	}
	defer func() { <-s.slots }()
	s.active.Add(1)
	defer s.active.Add(-1)

	sess, err := s.launcher.Open(ctx, fp)
	if err != nil {
		if _, ok := models.AsScrapeError(err); !ok {
			err = models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to open browser session", err)
		}
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			slog.Debug("session close reported an error", "request_id", requestID, "attempt", attempt, "error", cerr)
		}
	}()

	if _, err := s.navigator.Navigate(ctx, sess, target); err != nil {
		return nil, err
	}

	raw, err := snapshot(ctx, sess, s.stepTimeout)
	if err != nil {
		return nil, err
	}
	doc, err := ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}
	business := ExtractBusiness(doc, s.selectors)

	reviews, err := s.collector.Collect(ctx, sess, s.maxResults)
	if err != nil {
		return nil, err
	}

	return &models.ScrapeResult{
		Query:     query,
		SourceURL: target,
		Business:  business,
		Reviews:   reviews,
		ScrapedAt: s.now(),
	}, nil
}

// targetURL returns query itself when it is a resource URL and a search
// URL for it otherwise.
func (s *Scraper) targetURL(query string) string {
	if models.IsResourceURL(query) {
		return query
	}
	return fmt.Sprintf(s.searchTemplate, url.QueryEscape(query))
}

func validateQuery(query string) *models.ScrapeError {
	if models.NormalizeQuery(query) == "" {
		return models.NewScrapeError(models.ErrCodeInvalidQuery, "query is required", nil)
	}
	if models.LooksLikeURL(query) && !models.IsResourceURL(query) {
		return models.NewScrapeError(models.ErrCodeInvalidQuery, "query looks like a URL but is malformed", nil)
	}
	return nil
}
