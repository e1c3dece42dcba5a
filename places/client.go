package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrEmptyInput is returned when Autocomplete is called without input.
var ErrEmptyInput = errors.New("autocomplete input is required")

// Client queries a Places-style autocomplete endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

type autocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		Description string `json:"description"`
	} `json:"predictions"`
}

// Autocomplete returns place descriptions for a partial input, in the
// order the upstream ranks them.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	q := url.Values{}
	q.Set("input", input)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build autocomplete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("autocomplete upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode autocomplete response: %w", err)
	}

	switch payload.Status {
	case "", "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("autocomplete upstream status %s: %s", payload.Status, payload.ErrorMessage)
	}

	out := make([]string, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		if p.Description != "" {
			out = append(out, p.Description)
		}
	}
	return out, nil
}
