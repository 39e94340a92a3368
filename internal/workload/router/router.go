// Package router provides workload module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	"github.com/triageops/reviewqueue/internal/workload/handler"
	"github.com/triageops/reviewqueue/internal/workload/service"
)

// RegisterRoutes registers workload module routes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, logger *zap.SugaredLogger) {
	prs := pullrequestRepo.New(db, logger)
	reviewers := reviewerRepo.New(db, logger)
	svc := service.New(prs, reviewers, logger)
	h := handler.New(svc, logger)

	r.GET("/workload", h.GetWorkloadSnapshot)
	r.GET("/workqueue", h.GetWorkqueue)
}
