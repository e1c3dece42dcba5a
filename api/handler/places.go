package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/reviewscope/api/middleware"
	"github.com/use-agent/reviewscope/models"
)

// Autocompleter suggests place names for partial input.
type Autocompleter interface {
	Autocomplete(ctx context.Context, input string) ([]string, error)
}

// Autocomplete returns a handler for GET /api/v1/places/autocomplete.
func Autocomplete(ac Autocompleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString(middleware.RequestIDKey)

		var req models.AutocompleteRequest
		if err := c.ShouldBindQuery(&req); err != nil || req.Input == "" {
			c.JSON(http.StatusBadRequest, models.AutocompleteResponse{
				Success:     false,
				Predictions: []string{},
				Error: &models.ErrorDetail{
					Code:      models.ErrCodeInvalidQuery,
					Message:   "input is required",
					RequestID: requestID,
				},
			})
			return
		}

		predictions, err := ac.Autocomplete(c.Request.Context(), req.Input)
		if err != nil {
			c.JSON(http.StatusBadGateway, models.AutocompleteResponse{
				Success:     false,
				Predictions: []string{},
				Error: &models.ErrorDetail{
					Code:      models.ErrCodeUpstream,
					Message:   err.Error(),
					RequestID: requestID,
				},
			})
			return
		}
		if predictions == nil {
			predictions = []string{}
		}

		c.JSON(http.StatusOK, models.AutocompleteResponse{
			Success:     true,
			Predictions: predictions,
		})
	}
}
