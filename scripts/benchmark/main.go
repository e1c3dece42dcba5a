package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/reviewscope/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "reviewscope API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per query; the first bypasses the cache")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Queries covering a direct listing, a chain and a sparse listing.
var testQueries = []struct {
	Label string
	Query string
}{
	{"Landmark", "Ferry Building Marketplace San Francisco"},
	{"Chain", "Blue Bottle Coffee Oakland"},
	{"Small", "Arizmendi Bakery Emeryville"},
}

// --- Benchmark result types ---

type runResult struct {
	Run         int    `json:"run"`
	WallMs      int64  `json:"wall_ms"`
	ServerMs    int64  `json:"server_ms"`
	Reviews     int    `json:"reviews"`
	Attempts    int    `json:"attempts"`
	CacheStatus string `json:"cache_status"`
	HasBusiness bool   `json:"has_business"`
	Success     bool   `json:"success"`
	ErrorCode   string `json:"error_code,omitempty"`
	Error       string `json:"error,omitempty"`
}

type queryAverages struct {
	ColdMs  float64 `json:"cold_ms"`
	WarmMs  float64 `json:"warm_ms"`
	Reviews float64 `json:"reviews"`
}

type queryResult struct {
	Query    string         `json:"query"`
	Label    string         `json:"label"`
	Runs     []runResult    `json:"runs"`
	Averages *queryAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp    string        `json:"timestamp"`
	APIURL       string        `json:"api_url"`
	RunsPerQuery int           `json:"runs_per_query"`
	Results      []queryResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== reviewscope benchmark ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/query: %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerQuery: *runs,
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	for _, q := range testQueries {
		fmt.Printf("Benchmarking [%s] %s ...\n", q.Label, q.Query)
		qr := queryResult{Query: q.Query, Label: q.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkQuery(client, q.Query, i, i == 1)
			if rr.Success {
				fmt.Printf("OK  %dms  %d reviews  cache=%s\n", rr.WallMs, rr.Reviews, rr.CacheStatus)
			} else {
				fmt.Printf("FAILED: [%s] %s\n", rr.ErrorCode, rr.Error)
			}
			qr.Runs = append(qr.Runs, rr)
		}

		qr.Averages = computeAverages(qr.Runs)
		report.Results = append(report.Results, qr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// benchmarkQuery runs one request. A cold run bypasses the cache so the
// first number always reflects a full browser session.
func benchmarkQuery(client *http.Client, query string, run int, cold bool) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.ReviewsRequest{Query: query, SkipCache: cold})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/reviews", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var rv models.ReviewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&rv); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.WallMs = time.Since(start).Milliseconds()

	rr.Success = rv.Success
	rr.ServerMs = rv.Timing.TotalMs
	rr.Reviews = rv.Count
	rr.Attempts = rv.Attempts
	rr.CacheStatus = rv.CacheStatus
	rr.HasBusiness = rv.Business.Name != ""
	if rv.Error != nil {
		rr.ErrorCode = rv.Error.Code
		rr.Error = rv.Error.Message
		rr.Attempts = rv.Error.Attempts
	}
	return rr
}

func computeAverages(runs []runResult) *queryAverages {
	var avg queryAverages
	var cold, warm int

	for _, r := range runs {
		if !r.Success {
			continue
		}
		if r.CacheStatus == models.CacheHit {
			warm++
			avg.WarmMs += float64(r.WallMs)
		} else {
			cold++
			avg.ColdMs += float64(r.WallMs)
		}
		avg.Reviews += float64(r.Reviews)
	}

	if cold+warm == 0 {
		return nil
	}
	if cold > 0 {
		avg.ColdMs /= float64(cold)
	}
	if warm > 0 {
		avg.WarmMs /= float64(warm)
	}
	avg.Reviews /= float64(cold + warm)
	return &avg
}

func printTable(results []queryResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Query\tCold\tWarm\tReviews\tFailures\n")
	fmt.Fprintf(w, "─────\t────\t────\t───────\t────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t%d\n", truncate(r.Query, 40), len(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.0f\t%d\n",
			truncate(r.Query, 40),
			int64(r.Averages.ColdMs),
			int64(r.Averages.WarmMs),
			r.Averages.Reviews,
			failures(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func failures(runs []runResult) int {
	n := 0
	for _, r := range runs {
		if !r.Success {
			n++
		}
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
