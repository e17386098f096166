package gormtool

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DatabaseStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// GetMetrics reports connection pool and cache statistics.
func (t *CRUDTool) GetMetrics(c *gin.Context) {
	metrics := gin.H{}

	if sqlDB, err := t.DB.DB(); err == nil {
		stats := sqlDB.Stats()
		metrics["database"] = DatabaseStats{
			MaxOpenConnections: stats.MaxOpenConnections,
			OpenConnections:    stats.OpenConnections,
			InUse:              stats.InUse,
			Idle:               stats.Idle,
			WaitCount:          stats.WaitCount,
			WaitDuration:       stats.WaitDuration,
			MaxIdleClosed:      stats.MaxIdleClosed,
			MaxLifetimeClosed:  stats.MaxLifetimeClosed,
		}
	} else {
		metrics["database"] = "database stats unavailable: " + err.Error()
	}

	metrics["cache"] = t.CacheStats()
	metrics["redis"] = t.getRedisStats(c.Request.Context())

	Respond(c, http.StatusOK, "ok", metrics)
}
