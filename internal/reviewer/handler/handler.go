// Package handler provides HTTP handlers for reviewer preference endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reviewerModel "github.com/triageops/reviewqueue/internal/reviewer/model"
	"github.com/triageops/reviewqueue/internal/reviewer/service"
)

// Handler handles HTTP requests for reviewer preference endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new reviewer handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetPreferences handles GET /reviewers/:userID/preferences request.
func (h *Handler) GetPreferences(c *gin.Context) {
	userID := c.Param("userID")
	viewerID := c.Query("viewer_id")

	resp, err := h.service.GetPreferences(c.Request.Context(), userID, viewerID)
	if err != nil {
		if errors.Is(err, reviewerModel.ErrReviewerNotFound) {
			notFoundResponse(c, "reviewer not found")
			return
		}
		if errors.Is(err, reviewerModel.ErrInvalidUserID) {
			errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Errorw("get preferences failed", "user_id", userID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePreferences handles PUT /reviewers/:userID/preferences request.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := c.Param("userID")

	var req reviewerModel.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, reviewerModel.ErrInvalidCapacity),
			errors.Is(err, reviewerModel.ErrInvalidPingAfter),
			errors.Is(err, reviewerModel.ErrInvalidVisibility),
			errors.Is(err, reviewerModel.ErrInvalidUserID):
			errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		default:
			h.logger.Errorw("update preferences failed", "user_id", userID, "error", err)
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListPreferences handles GET /reviewers/preferences request.
func (h *Handler) ListPreferences(c *gin.Context) {
	viewerID := c.Query("viewer_id")

	resp, err := h.service.ListPreferences(c.Request.Context(), viewerID)
	if err != nil {
		h.logger.Errorw("list preferences failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}
