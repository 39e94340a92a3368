// Package handler provides HTTP handlers for the workload module.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/workload/service"
)

// Handler handles HTTP requests for workload endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new workload handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetWorkloadSnapshot handles GET /workload request.
func (h *Handler) GetWorkloadSnapshot(c *gin.Context) {
	resp, err := h.service.GetWorkloadSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Errorw("workload snapshot failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetWorkqueue handles GET /workqueue request. The optional user_id
// query parameter filters to one reviewer's assignments.
func (h *Handler) GetWorkqueue(c *gin.Context) {
	userID := c.Query("user_id")

	resp, err := h.service.GetWorkqueue(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("workqueue read failed", "user_id", userID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}
