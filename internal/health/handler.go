// Package health provides the liveness endpoint.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/triageops/reviewqueue/internal/database"
)

const pingTimeout = 5 * time.Second

// Handler handles health check requests.
type Handler struct {
	db      *gorm.DB
	logger  *zap.SugaredLogger
	started time.Time
}

// New creates a new health handler instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		started: time.Now(),
	}
}

// Response represents health check response.
type Response struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Check handles GET /health request. Unhealthy means the database ping
// failed within the timeout; the process itself is still serving.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	uptime := int64(time.Since(h.started).Seconds())

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{
			Status:        "unhealthy",
			UptimeSeconds: uptime,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Status:        "ok",
		UptimeSeconds: uptime,
	})
}
