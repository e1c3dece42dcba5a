package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
//
// The scrape codes form a closed set: every failure the scraping core can
// produce carries exactly one of them.
const (
	ErrCodeInvalidQuery         = "INVALID_QUERY"
	ErrCodeLaunchFailure        = "LAUNCH_FAILURE"
	ErrCodeNavigationTimeout    = "NAVIGATION_TIMEOUT"
	ErrCodeNoFeedFound          = "NO_FEED_FOUND"
	ErrCodeFeedContainerMissing = "FEED_CONTAINER_MISSING"
	ErrCodeExtractionFailure    = "EXTRACTION_FAILURE"
	ErrCodeExhausted            = "RETRIES_EXHAUSTED"

	// API-level codes, never produced by the scraping core.
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeUpstream     = "UPSTREAM_FAILURE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string

	// RequestID is the correlation id of the inbound request that failed.
	RequestID string

	// Attempts is the number of scrape attempts made before giving up.
	Attempts int

	Err error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{
		Code:      e.Code,
		Message:   e.Message,
		RequestID: e.RequestID,
		Attempts:  e.Attempts,
	}
}

// AsScrapeError finds the first ScrapeError in err's chain.
func AsScrapeError(err error) (*ScrapeError, bool) {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of the first ScrapeError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	if se, ok := AsScrapeError(err); ok {
		return se.Code
	}
	return ErrCodeInternal
}

// Retryable reports whether a failure may be retried. Only an invalid
// query is final; every other failure may stem from a transient render race.
func Retryable(err error) bool {
	return CodeOf(err) != ErrCodeInvalidQuery
}
