package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/reviewscope/api/handler"
	"github.com/use-agent/reviewscope/api/middleware"
	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/metrics"
)

// Deps are the collaborators the HTTP API serves.
type Deps struct {
	Reviews      handler.ReviewService
	Stats        handler.StatsProvider
	Autocomplete handler.Autocompleter // optional
	Metrics      *metrics.Metrics      // optional
	CacheKind    string
	StartTime    time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds background work started by middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.Stats, deps.CacheKind, deps.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	reviews := handler.Reviews(deps.Reviews)
	protected.GET("/reviews", reviews)
	protected.POST("/reviews", reviews)

	if deps.Autocomplete != nil {
		protected.GET("/places/autocomplete", handler.Autocomplete(deps.Autocomplete))
	}

	return r
}
