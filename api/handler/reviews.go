package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/reviewscope/api/middleware"
	"github.com/use-agent/reviewscope/models"
)

// ReviewService answers review queries.
type ReviewService interface {
	Reviews(ctx context.Context, req models.ReviewsRequest) (*models.ScrapeResult, string, error)
}

// Reviews returns a handler for GET and POST /api/v1/reviews.
//
// GET reads ?q= (or ?query=) and ?skip_cache=; POST reads a JSON body.
func Reviews(svc ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()
		requestID := c.GetString(middleware.RequestIDKey)

		var req models.ReviewsRequest
		var bindErr error
		if c.Request.Method == http.MethodPost {
			bindErr = c.ShouldBindJSON(&req)
		} else {
			bindErr = c.ShouldBindQuery(&req)
			if req.Query == "" {
				req.Query = c.Query("query")
			}
		}
		if bindErr != nil {
			se := models.NewScrapeError(models.ErrCodeInvalidQuery, bindErr.Error(), bindErr)
			se.RequestID = requestID
			respondError(c, se, totalStart)
			return
		}
		req.RequestID = requestID

		result, cacheStatus, err := svc.Reviews(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, totalStart)
			return
		}

		resp := models.NewReviewsResponse(result)
		resp.CacheStatus = cacheStatus
		resp.RequestID = requestID
		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, totalStart time.Time) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	detail := scrapeErr.ToDetail()
	if detail.RequestID == "" {
		detail.RequestID = c.GetString(middleware.RequestIDKey)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ReviewsResponse{
		Success:   false,
		Reviews:   []models.ReviewRecord{},
		RequestID: detail.RequestID,
		Error:     detail,
		Timing:    models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidQuery:
		return http.StatusBadRequest // 400
	case models.ErrCodeNoFeedFound, models.ErrCodeFeedContainerMissing:
		return http.StatusNotFound // 404
	case models.ErrCodeNavigationTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeUpstream:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
