package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/reviewscope/models"
)

// apiClient talks to a running reviewscope API.
type apiClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// post sends a JSON POST and returns the response body.
func (c *apiClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// get sends a GET with the given query parameters.
func (c *apiClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func handleGetReviews(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		body, err := c.post(ctx, "/api/v1/reviews", models.ReviewsRequest{
			Query:     query,
			SkipCache: request.GetBool("skip_cache", false),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ReviewsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "review scrape failed")), nil
		}
		return mcp.NewToolResultText(formatReviews(&resp)), nil
	}
}

func handleAutocomplete(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := request.RequireString("input")
		if err != nil || input == "" {
			return mcp.NewToolResultError("input is required"), nil
		}

		body, err := c.get(ctx, "/api/v1/places/autocomplete", url.Values{"input": {input}})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.AutocompleteResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "autocomplete failed")), nil
		}
		if len(resp.Predictions) == 0 {
			return mcp.NewToolResultText("No matching places."), nil
		}
		return mcp.NewToolResultText(strings.Join(resp.Predictions, "\n")), nil
	}
}

func errorText(d *models.ErrorDetail, fallback string) string {
	if d == nil {
		return fallback
	}
	msg := fmt.Sprintf("[%s] %s", d.Code, d.Message)
	if d.RequestID != "" {
		msg += fmt.Sprintf(" (request %s)", d.RequestID)
	}
	return msg
}

// formatReviews renders a response as plain text with a summary header.
func formatReviews(r *models.ReviewsResponse) string {
	var b strings.Builder
	if r.Business.Name != "" {
		fmt.Fprintf(&b, "Business: %s\n", r.Business.Name)
	}
	if r.Business.Rating != "" {
		fmt.Fprintf(&b, "Rating: %s", r.Business.Rating)
		if r.Business.ReviewCount != nil {
			fmt.Fprintf(&b, " (%d reviews)", *r.Business.ReviewCount)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Source: %s\nCollected: %d (cache %s)\n", r.SourceURL, r.Count, r.CacheStatus)

	for i, rv := range r.Reviews {
		fmt.Fprintf(&b, "\n%d. %s, %s", i+1, rv.Author, rv.Rating)
		if rv.PostedAt != "" {
			fmt.Fprintf(&b, ", %s", rv.PostedAt)
		}
		fmt.Fprintf(&b, "\n%s\n", rv.Text)
	}
	return b.String()
}
