package models

// ReviewsRequest is the payload for GET/POST /api/v1/reviews.
type ReviewsRequest struct {
	// Query is a free-text business name or a direct resource URL. Required.
	Query string `json:"query" form:"q"`

	// SkipCache bypasses the cache lookup. The fresh result still
	// refreshes the cache entry.
	// Default: false.
	SkipCache bool `json:"skip_cache,omitempty" form:"skip_cache"`

	// RequestID is the correlation id assigned by the API layer.
	RequestID string `json:"-" form:"-"`
}

// AutocompleteRequest is the query string for GET /api/v1/places/autocomplete.
type AutocompleteRequest struct {
	// Input is the partial place name typed so far.
	Input string `form:"input"`
}
