package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/use-agent/reviewscope/metrics"
	"github.com/use-agent/reviewscope/models"
)

// AttemptFunc performs one full scrape attempt. attempt is zero-based.
type AttemptFunc func(ctx context.Context, attempt int) (*models.ScrapeResult, error)

// Options controls the attempt loop.
type Options struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int

	// BaseDelay is the delay after the first failure; it doubles each time.
	BaseDelay time.Duration

	// MaxDelay caps the exponential term before jitter is applied, so
	// capped delays still spread over the jitter band; 0 means uncapped.
	MaxDelay time.Duration

	// JitterMin and JitterMax bound the multiplicative jitter band.
	JitterMin float64
	JitterMax float64
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	if o.BaseDelay < 0 {
		o.BaseDelay = 0
	}
	if o.JitterMin <= 0 && o.JitterMax <= 0 {
		o.JitterMin, o.JitterMax = 0.8, 1.2
	}
	if o.JitterMax < o.JitterMin {
		o.JitterMax = o.JitterMin
	}
	return o
}

// Orchestrator runs an attempt function with jittered exponential backoff.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	opts    Options
	metrics *metrics.Metrics

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error

	// jitter returns a value in [0, 1).
	jitter func() float64
}

// NewOrchestrator creates an Orchestrator. m may be nil.
func NewOrchestrator(opts Options, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		opts:    opts.withDefaults(),
		metrics: m,
		sleep:   sleepCtx,
		jitter:  rand.Float64,
	}
}

// Run invokes fn up to MaxRetries times and returns the first success.
//
// Every failure except InvalidQuery is retried. When attempts run out the
// last failure is returned with its kind preserved, stamped with requestID
// and the number of attempts made.
func (o *Orchestrator) Run(ctx context.Context, requestID string, fn AttemptFunc) (*models.ScrapeResult, error) {
	var lastErr error
	attempts := 0

	for i := 0; i < o.opts.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = models.NewScrapeError(models.ErrCodeNavigationTimeout, "request cancelled before attempt", err)
			}
			break
		}

		attempts++
		o.metrics.IncAttempt()

		result, err := fn(ctx, i)
		if err == nil {
			result.Attempts = attempts
			if i > 0 {
				slog.Info("attempt succeeded after retries", "request_id", requestID, "attempt", i)
			}
			return result, nil
		}
		lastErr = err

		if !models.Retryable(err) {
			slog.Info("attempt failed, not retryable",
				"request_id", requestID, "attempt", i, "code", models.CodeOf(err), "error", err)
			break
		}

		if i == o.opts.MaxRetries-1 {
			slog.Warn("attempt failed, retries exhausted",
				"request_id", requestID, "attempt", i, "code", models.CodeOf(err), "error", err)
			break
		}

		delay := o.Backoff(i)
		slog.Warn("attempt failed, backing off",
			"request_id", requestID, "attempt", i, "code", models.CodeOf(err),
			"delay", delay, "error", err)
		o.metrics.IncRetry()

		if err := o.sleep(ctx, delay); err != nil {
			break
		}
	}

	return nil, finalize(lastErr, requestID, attempts)
}

// Backoff returns the jittered delay after the failed attempt with index i:
// min(base*2^i, MaxDelay) scaled by a factor in [JitterMin, JitterMax).
func (o *Orchestrator) Backoff(i int) time.Duration {
	if o.opts.BaseDelay <= 0 {
		return 0
	}
	exp := float64(o.opts.BaseDelay) * math.Pow(2, float64(i))
	if o.opts.MaxDelay > 0 && exp > float64(o.opts.MaxDelay) {
		exp = float64(o.opts.MaxDelay)
	}
	factor := o.opts.JitterMin + o.jitter()*(o.opts.JitterMax-o.opts.JitterMin)
	return time.Duration(exp * factor)
}

// finalize returns a copy of the last error's ScrapeError carrying the
// correlation id and attempt count.
func finalize(err error, requestID string, attempts int) error {
	if err == nil {
		return &models.ScrapeError{
			Code:      models.ErrCodeExhausted,
			Message:   "no attempt was made",
			RequestID: requestID,
			Attempts:  attempts,
		}
	}

	var se *models.ScrapeError
	if errors.As(err, &se) {
		out := *se
		out.RequestID = requestID
		out.Attempts = attempts
		return &out
	}

	return &models.ScrapeError{
		Code:      models.ErrCodeExhausted,
		Message:   "all attempts failed",
		RequestID: requestID,
		Attempts:  attempts,
		Err:       err,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
