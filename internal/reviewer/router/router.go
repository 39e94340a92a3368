// Package router provides reviewer module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/triageops/reviewqueue/internal/reviewer/handler"
	"github.com/triageops/reviewqueue/internal/reviewer/repository"
	"github.com/triageops/reviewqueue/internal/reviewer/service"
)

// RegisterRoutes registers reviewer module routes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(repo, logger)
	h := handler.New(svc, logger)

	r.GET("/reviewers/preferences", h.ListPreferences)
	r.GET("/reviewers/:userID/preferences", h.GetPreferences)
	r.PUT("/reviewers/:userID/preferences", h.UpdatePreferences)
}
