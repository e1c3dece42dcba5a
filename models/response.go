package models

import "time"

// Cache statuses reported in ReviewsResponse.CacheStatus.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// ReviewsResponse is the response for /api/v1/reviews.
type ReviewsResponse struct {
	// Success indicates whether the scrape completed without errors.
	Success bool `json:"success"`

	Query     string          `json:"query,omitempty"`
	SourceURL string          `json:"source_url,omitempty"`
	Business  BusinessSummary `json:"business"`
	Reviews   []ReviewRecord  `json:"reviews"`

	// Count is len(Reviews).
	Count int `json:"count"`

	ScrapedAt time.Time `json:"scraped_at,omitempty"`

	// Attempts is how many browser attempts produced the result.
	Attempts int `json:"attempts,omitempty"`

	// CacheStatus is "hit", "miss" or "bypass".
	CacheStatus string `json:"cache_status,omitempty"`

	RequestID string `json:"request_id,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// NewReviewsResponse builds a successful response from a result.
func NewReviewsResponse(r *ScrapeResult) ReviewsResponse {
	reviews := r.Reviews
	if reviews == nil {
		reviews = []ReviewRecord{}
	}
	return ReviewsResponse{
		Success:   true,
		Query:     r.Query,
		SourceURL: r.SourceURL,
		Business:  r.Business,
		Reviews:   reviews,
		Count:     len(reviews),
		ScrapedAt: r.ScrapedAt,
		Attempts:  r.Attempts,
	}
}

// AutocompleteResponse is the response for /api/v1/places/autocomplete.
type AutocompleteResponse struct {
	Success     bool         `json:"success"`
	Predictions []string     `json:"predictions"`
	Error       *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// ErrorResponse is the body of every non-2xx response outside /reviews.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// SessionStats reports browser session utilisation.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string       `json:"status"` // "healthy" or "degraded"
	Uptime   string       `json:"uptime"`
	Cache    string       `json:"cache"` // "memory" or "redis"
	Sessions SessionStats `json:"sessions"`
	Version  string       `json:"version"`
}
