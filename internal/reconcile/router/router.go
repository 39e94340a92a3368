// Package router provides reconcile module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/config"
	"github.com/triageops/reviewqueue/internal/reconcile/handler"
	"github.com/triageops/reviewqueue/internal/reconcile/service"
)

// RegisterRoutes registers reconcile module routes. The service is built
// by the caller because the background scheduler shares the same instance.
func RegisterRoutes(
	r *gin.Engine,
	svc service.Service,
	cfg *config.SchedulerConfig,
	logger *zap.SugaredLogger,
) {
	h := handler.New(svc, cfg, logger)

	r.POST("/events", h.OnDeltaEvent)
	r.POST("/sync/trigger", h.TriggerFullSync)
	r.POST("/sync/roster", h.TriggerRosterSync)
}
