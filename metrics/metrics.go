package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for review scraping.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry         *prometheus.Registry
	ScrapesTotal     *prometheus.CounterVec
	AttemptsTotal    prometheus.Counter
	RetriesTotal     prometheus.Counter
	CacheLookups     *prometheus.CounterVec
	ReviewsCollected prometheus.Counter
	ScrapeDuration   prometheus.Histogram
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	scrapes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscope_scrapes_total",
			Help: "Completed review requests by outcome (ok or an error code).",
		},
		[]string{"outcome"},
	)
	attempts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewscope_attempts_total",
			Help: "Browser attempts started.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewscope_retries_total",
			Help: "Backoff delays scheduled after a failed attempt.",
		},
	)
	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscope_cache_lookups_total",
			Help: "Result cache lookups by result (hit, miss, bypass).",
		},
		[]string{"result"},
	)
	reviews := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewscope_reviews_collected_total",
			Help: "Reviews returned by fresh scrapes.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewscope_scrape_duration_seconds",
			Help:    "End-to-end latency of fresh scrapes, retries included.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	registry.MustRegister(scrapes, attempts, retries, lookups, reviews, duration)

	return &Metrics{
		Registry:         registry,
		ScrapesTotal:     scrapes,
		AttemptsTotal:    attempts,
		RetriesTotal:     retries,
		CacheLookups:     lookups,
		ReviewsCollected: reviews,
		ScrapeDuration:   duration,
	}
}

// IncScrape records a finished request.
func (m *Metrics) IncScrape(outcome string) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(outcome).Inc()
}

// IncAttempt records the start of a browser attempt.
func (m *Metrics) IncAttempt() {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
}

// IncRetry records a scheduled backoff.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncCacheLookup records a cache lookup result.
func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// AddReviews adds n to the collected reviews counter.
func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsCollected.Add(float64(n))
}

// ObserveScrape records the duration of a fresh scrape.
func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}
