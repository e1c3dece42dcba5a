package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/reviewscope/cache"
	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/models"
	"github.com/use-agent/reviewscope/scraper"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [query]",
		Short: "Scrape the reviews of one business",
		Long: `Scrape resolves a business by name (or opens a direct listing URL),
collects its reviews and prints them as JSON.

Examples:
  # Search by name and location
  reviewctl scrape "Blue Bottle Coffee Oakland"

  # Open a listing directly, keep at most 20 reviews
  reviewctl scrape -n 20 "https://www.google.com/maps/place/..."

  # Watch the browser work
  reviewctl scrape --headless=false "Blue Bottle Coffee Oakland"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScrapeCmd,
	}

	cmd.Flags().IntP("max-results", "n", 0, "Maximum number of reviews to collect (default from config)")
	cmd.Flags().IntP("retries", "r", 0, "Maximum scrape attempts (default from config)")
	cmd.Flags().StringP("selectors", "s", "", "YAML file of selector overrides")
	cmd.Flags().Bool("headless", true, "Run the browser without a window")
	cmd.Flags().Bool("skip-cache", false, "Ignore a cached result")
	cmd.Flags().Bool("compact", false, "Print JSON on a single line")

	return cmd
}

// scrapeOptions are the flag values of the scrape command.
type scrapeOptions struct {
	maxResults int
	retries    int
	selectors  string
	headless   bool
	skipCache  bool
	compact    bool
}

func scrapeOptionsFromFlags(cmd *cobra.Command) scrapeOptions {
	var o scrapeOptions
	o.maxResults, _ = cmd.Flags().GetInt("max-results")
	o.retries, _ = cmd.Flags().GetInt("retries")
	o.selectors, _ = cmd.Flags().GetString("selectors")
	o.headless, _ = cmd.Flags().GetBool("headless")
	o.skipCache, _ = cmd.Flags().GetBool("skip-cache")
	o.compact, _ = cmd.Flags().GetBool("compact")
	return o
}

// apply overlays flag values on cfg.
func (o scrapeOptions) apply(cfg *config.Config) {
	if o.maxResults > 0 {
		cfg.Scroll.MaxResults = o.maxResults
	}
	if o.retries > 0 {
		cfg.Retry.MaxRetries = o.retries
	}
	if o.selectors != "" {
		cfg.Target.SelectorsFile = o.selectors
	}
	cfg.Browser.Headless = o.headless
	// One query at a time from the CLI.
	cfg.Browser.MaxSessions = 1
}

func runScrapeCmd(cmd *cobra.Command, args []string) error {
	opts := scrapeOptionsFromFlags(cmd)

	cfg := config.Load()
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	selectors, err := scraper.LoadSelectorSet(cfg.Target.SelectorsFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, _, closeCache, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	sc := scraper.New(cfg, scraper.NewRodLauncher(cfg.Browser, cfg.Navigation, cfg.Scroll, selectors), selectors, store, nil)
	return scrape(ctx, cmd, sc, strings.Join(args, " "), opts)
}

// reviewSource is the part of the scraper the command needs.
type reviewSource interface {
	Reviews(ctx context.Context, req models.ReviewsRequest) (*models.ScrapeResult, string, error)
}

func scrape(ctx context.Context, cmd *cobra.Command, src reviewSource, query string, opts scrapeOptions) error {
	result, status, err := src.Reviews(ctx, models.ReviewsRequest{Query: query, SkipCache: opts.skipCache})
	if err != nil {
		return err
	}

	resp := models.NewReviewsResponse(result)
	resp.CacheStatus = status

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
