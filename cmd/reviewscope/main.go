package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/reviewscope/api"
	"github.com/use-agent/reviewscope/api/handler"
	"github.com/use-agent/reviewscope/cache"
	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/metrics"
	"github.com/use-agent/reviewscope/places"
	"github.com/use-agent/reviewscope/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("reviewscope starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"profile", cfg.Browser.Profile,
		"maxSessions", cfg.Browser.MaxSessions,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Selectors ────────────────────────────────────────────────
	selectors := scraper.DefaultSelectors()
	if cfg.Target.SelectorsFile != "" {
		var err error
		selectors, err = scraper.LoadSelectorSet(cfg.Target.SelectorsFile)
		if err != nil {
			slog.Error("failed to load selectors", "path", cfg.Target.SelectorsFile, "error", err)
			os.Exit(1)
		}
	}

	// ── 4. Cache ────────────────────────────────────────────────────
	store, cacheKind, closeCache, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		slog.Error("failed to initialise cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()
	slog.Info("cache ready", "kind", cacheKind, "ttl", cfg.Cache.TTL)

	// ── 5. Scraper ──────────────────────────────────────────────────
	m := metrics.New()
	launcher := scraper.NewRodLauncher(cfg.Browser, cfg.Navigation, cfg.Scroll, selectors)
	sc := scraper.New(cfg, launcher, selectors, store, m)

	deps := api.Deps{
		Reviews:   sc,
		Stats:     sc,
		Metrics:   m,
		CacheKind: cacheKind,
		StartTime: time.Now(),
	}
	if cfg.Places.APIKey != "" {
		deps.Autocomplete = places.NewClient(&http.Client{Timeout: cfg.Places.Timeout}, cfg.Places.BaseURL, cfg.Places.APIKey)
	}

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(ctx, cfg, deps),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr, "version", handler.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	<-ctx.Done()
	slog.Info("shutdown signal received")

	// In-flight scrapes get a navigation timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Navigation.NavigationTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("reviewscope stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
