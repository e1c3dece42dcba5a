package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/models"
)

// Collector pages through a virtualized review feed by scrolling it.
type Collector struct {
	selectors     SelectorSet
	maxAttempts   int
	confirmations int
	stepTimeout   time.Duration
}

// NewCollector creates a Collector.
func NewCollector(selectors SelectorSet, cfg config.ScrollConfig) *Collector {
	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = config.DefaultStepTimeout
	}
	return &Collector{
		selectors:     selectors,
		maxAttempts:   cfg.MaxAttempts,
		confirmations: cfg.Confirmations,
		stepTimeout:   stepTimeout,
	}
}

// Collect scrolls the open feed until it stops growing, limit reviews are
// rendered, or the scroll budget runs out, and returns at most limit
// reviews in feed order. A limit <= 0 means no cap.
//
// Growth stops when a scroll renders no new items, re-checked
// c.confirmations more times. Running out of scroll rounds is not an
// error: whatever was rendered last is returned.
func (c *Collector) Collect(ctx context.Context, sess Session, limit int) ([]models.ReviewRecord, error) {
	reviews, err := c.extract(ctx, sess)
	if err != nil {
		return nil, err
	}
	if capReached(len(reviews), limit) {
		return reviews[:limit], nil
	}

	previous := 0
	stalls := 0
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.scroll(ctx, sess); err != nil {
			return nil, asScrapeError(ctx, err, models.ErrCodeExtractionFailure, "failed to scroll the review feed")
		}

		reviews, err = c.extract(ctx, sess)
		if err != nil {
			return nil, err
		}
		n := len(reviews)

		if capReached(n, limit) {
			slog.Debug("review cap reached", "count", n, "limit", limit, "scrolls", attempt+1)
			return reviews[:limit], nil
		}

		if n == previous {
			if stalls >= c.confirmations {
				slog.Debug("review feed exhausted", "count", n, "scrolls", attempt+1)
				return reviews, nil
			}
			stalls++
			continue
		}

		stalls = 0
		previous = n
	}

	slog.Debug("scroll budget spent before the feed converged", "count", len(reviews), "scrolls", c.maxAttempts)
	return reviews, nil
}

// scroll runs one ScrollFeed bounded by the step timeout.
func (c *Collector) scroll(ctx context.Context, sess Session) error {
	sctx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()
	return sess.ScrollFeed(sctx)
}

func (c *Collector) extract(ctx context.Context, sess Session) ([]models.ReviewRecord, error) {
	raw, err := snapshot(ctx, sess, c.stepTimeout)
	if err != nil {
		return nil, err
	}
	doc, err := ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}
	return ExtractReviews(doc, c.selectors)
}

func capReached(n, limit int) bool {
	return limit > 0 && n >= limit
}

// snapshot reads the page HTML within timeout.
func snapshot(ctx context.Context, sess Session, timeout time.Duration) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	raw, err := sess.Snapshot(sctx)
	if err != nil {
		return "", asScrapeError(ctx, err, models.ErrCodeExtractionFailure, "failed to read page snapshot")
	}
	return raw, nil
}
