package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/reviewscope/models"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T", res.Content[0])
	}
	return tc.Text
}

func newAPI(t *testing.T, h http.HandlerFunc) *apiClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &apiClient{http: srv.Client(), baseURL: srv.URL, apiKey: "k1"}
}

func TestGetReviewsTool(t *testing.T) {
	var got models.ReviewsRequest
	c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/reviews" || r.Header.Get("X-API-Key") != "k1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		count := 120
		json.NewEncoder(w).Encode(models.ReviewsResponse{
			Success:     true,
			SourceURL:   "https://maps.example.com/place/1",
			Business:    models.BusinessSummary{Name: "Example Cafe", Rating: "4.6", ReviewCount: &count},
			Reviews:     []models.ReviewRecord{{Author: "Ann", Rating: "5 stars", Text: "Great coffee", PostedAt: "a week ago"}},
			Count:       1,
			CacheStatus: models.CacheMiss,
		})
	})

	res, err := handleGetReviews(c)(context.Background(), callRequest(map[string]any{
		"query":      "Example Cafe",
		"skip_cache": true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if got.Query != "Example Cafe" || !got.SkipCache {
		t.Errorf("API got %+v", got)
	}

	text := resultText(t, res)
	for _, want := range []string{"Business: Example Cafe", "Rating: 4.6 (120 reviews)", "1. Ann, 5 stars, a week ago", "Great coffee"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestGetReviewsToolSurfacesAPIError(t *testing.T) {
	c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ReviewsResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeNoFeedFound, Message: "no review feed", RequestID: "req-1"},
		})
	})

	res, _ := handleGetReviews(c)(context.Background(), callRequest(map[string]any{"query": "Nowhere"}))
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	text := resultText(t, res)
	if !strings.Contains(text, models.ErrCodeNoFeedFound) || !strings.Contains(text, "req-1") {
		t.Errorf("text = %q", text)
	}
}

func TestGetReviewsToolRequiresQuery(t *testing.T) {
	c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called")
	})
	res, _ := handleGetReviews(c)(context.Background(), callRequest(map[string]any{"query": "  "}))
	if !res.IsError {
		t.Fatal("expected tool error")
	}
}

func TestAutocompleteTool(t *testing.T) {
	c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("input") != "exam" {
			t.Errorf("input = %q", r.URL.Query().Get("input"))
		}
		json.NewEncoder(w).Encode(models.AutocompleteResponse{
			Success:     true,
			Predictions: []string{"Example Cafe, Oakland", "Example Bakery, Berkeley"},
		})
	})

	res, err := handleAutocomplete(c)(context.Background(), callRequest(map[string]any{"input": "exam"}))
	if err != nil || res.IsError {
		t.Fatalf("err = %v, result = %+v", err, res)
	}
	if text := resultText(t, res); text != "Example Cafe, Oakland\nExample Bakery, Berkeley" {
		t.Errorf("text = %q", text)
	}
}
