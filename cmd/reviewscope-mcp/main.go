package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/reviewscope/api/handler"
)

func main() {
	apiURL := os.Getenv("REVIEWSCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("REVIEWSCOPE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "REVIEWSCOPE_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(&apiClient{
		http:    &http.Client{Timeout: 5 * time.Minute},
		baseURL: apiURL,
		apiKey:  apiKey,
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newServer registers the review tools against the API behind c.
func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"reviewscope",
		handler.Version,
		server.WithToolCapabilities(false),
	)

	getReviewsTool := mcp.NewTool("get_reviews",
		mcp.WithDescription("Collect customer reviews for a business from its public map listing. Accepts a business name with location (e.g. 'Blue Bottle Coffee Oakland') or a direct listing URL. Returns the business rating and the reviews in feed order."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Business name and location, or a direct listing URL"),
		),
		mcp.WithBoolean("skip_cache",
			mcp.Description("Ignore any cached result and scrape again (default: false)"),
		),
	)
	s.AddTool(getReviewsTool, handleGetReviews(c))

	autocompleteTool := mcp.NewTool("autocomplete_place",
		mcp.WithDescription("Suggest full place names for a partial business name. Useful to disambiguate a query before calling get_reviews."),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Partial place name typed so far"),
		),
	)
	s.AddTool(autocompleteTool, handleAutocomplete(c))

	return s
}
