package models

import "time"

// Defaults substituted for review fields the source page did not render.
const (
	DefaultAuthor = "Anonymous"
	NoRating      = "No rating"
	NoReviewText  = "No review text"
)

// BusinessSummary describes the entity whose reviews were collected.
// Every field is optional.
type BusinessSummary struct {
	Name string `json:"name,omitempty"`

	// Rating is kept as the source renders it ("4.6", "4,6", ...).
	Rating string `json:"rating,omitempty"`

	// ReviewCount is nil when the count could not be parsed. Zero is a
	// real value and is distinct from unknown.
	ReviewCount *int `json:"review_count,omitempty"`
}

// ReviewRecord is one review as rendered in the feed.
type ReviewRecord struct {
	ID     string `json:"id,omitempty"`
	Author string `json:"author"`

	// Rating is the source-native accessible label, e.g. "5 stars".
	Rating string `json:"rating"`

	Text     string `json:"text"`
	PostedAt string `json:"posted_at,omitempty"`
}

// ScrapeResult is a business summary plus its reviews in feed order.
// A result is never mutated once constructed; use Clone to derive copies.
type ScrapeResult struct {
	Query     string          `json:"query"`
	SourceURL string          `json:"source_url"`
	Business  BusinessSummary `json:"business"`
	Reviews   []ReviewRecord  `json:"reviews"`
	ScrapedAt time.Time       `json:"scraped_at"`
	Attempts  int             `json:"attempts"`
}

// Clone returns a deep copy of r.
func (r *ScrapeResult) Clone() *ScrapeResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Business.ReviewCount != nil {
		n := *r.Business.ReviewCount
		out.Business.ReviewCount = &n
	}
	if r.Reviews != nil {
		out.Reviews = make([]ReviewRecord, len(r.Reviews))
		copy(out.Reviews, r.Reviews)
	}
	return &out
}
