package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/reviewscope/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// StatsProvider reports browser session utilisation.
type StatsProvider interface {
	Stats() models.SessionStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports session utilisation and degrades status when > 80% of browser
// slots are busy.
func Health(sp StatsProvider, cacheKind string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sp.Stats()

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Cache:    cacheKind,
			Sessions: stats,
			Version:  Version,
		})
	}
}
