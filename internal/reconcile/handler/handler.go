// Package handler provides HTTP handlers for the reconcile module.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/config"
	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	reconcileModel "github.com/triageops/reviewqueue/internal/reconcile/model"
	"github.com/triageops/reviewqueue/internal/reconcile/service"
)

// Handler handles HTTP requests for the reconcile module.
type Handler struct {
	service service.Service
	cfg     *config.SchedulerConfig
	logger  *zap.SugaredLogger
}

// New creates a new reconcile handler instance.
func New(svc service.Service, cfg *config.SchedulerConfig, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, cfg: cfg, logger: logger}
}

// OnDeltaEvent handles POST /events request.
// Duplicate and stale deliveries are acknowledged with applied=false so
// the webhook layer never retries them.
func (h *Handler) OnDeltaEvent(c *gin.Context) {
	var event reconcileModel.DeltaEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ApplyDelta(c.Request.Context(), &event)
	if err != nil {
		switch {
		case errors.Is(err, pullrequestModel.ErrInvalidRepo),
			errors.Is(err, pullrequestModel.ErrInvalidNumber),
			errors.Is(err, pullrequestModel.ErrInvalidState),
			errors.Is(err, pullrequestModel.ErrMissingWatermark):
			errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		default:
			h.logger.Errorw("delta event failed",
				"repo", event.Repo, "number", event.Number, "error", err)
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TriggerFullSync handles POST /sync/trigger request. The cycle runs in
// the background under its own deadline; the request only kicks it off.
func (h *Handler) TriggerFullSync(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.CycleTimeout)
		defer cancel()
		if err := h.service.FullSync(ctx); err != nil {
			if errors.Is(err, reconcileModel.ErrSyncInProgress) {
				h.logger.Infow("full sync trigger ignored, cycle already running")
				return
			}
			h.logger.Errorw("triggered full sync failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "sync started"})
}

// TriggerRosterSync handles POST /sync/roster request.
func (h *Handler) TriggerRosterSync(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.CycleTimeout)
		defer cancel()
		if err := h.service.SyncRoster(ctx); err != nil {
			h.logger.Errorw("triggered roster sync failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "roster sync started"})
}
