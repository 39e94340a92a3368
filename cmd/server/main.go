// Package main provides the entry point for the review queue service.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/triageops/reviewqueue/internal/assignment"
	"github.com/triageops/reviewqueue/internal/config"
	"github.com/triageops/reviewqueue/internal/database"
	"github.com/triageops/reviewqueue/internal/database/migrate"
	"github.com/triageops/reviewqueue/internal/database/pool"
	"github.com/triageops/reviewqueue/internal/health"
	"github.com/triageops/reviewqueue/internal/middleware"
	pullrequestRepo "github.com/triageops/reviewqueue/internal/pullrequest/repository"
	reconcileRouter "github.com/triageops/reviewqueue/internal/reconcile/router"
	reconcileService "github.com/triageops/reviewqueue/internal/reconcile/service"
	"github.com/triageops/reviewqueue/internal/reminder"
	"github.com/triageops/reviewqueue/internal/remote"
	reviewerRepo "github.com/triageops/reviewqueue/internal/reviewer/repository"
	reviewerRouter "github.com/triageops/reviewqueue/internal/reviewer/router"
	"github.com/triageops/reviewqueue/internal/scheduler"
	teamRepo "github.com/triageops/reviewqueue/internal/team/repository"
	workloadRouter "github.com/triageops/reviewqueue/internal/workload/router"
	"github.com/triageops/reviewqueue/pkg/logger"
)

func main() {
	// Optional; production passes real environment variables.
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	rootCtx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(rootCtx)
	if err != nil {
		zapLogger.Fatalw("failed to connect to database", "error", err)
	}
	if err := pool.SetupConnectionPool(db, pool.LoadPoolConfigFromEnv()); err != nil {
		zapLogger.Fatalw("failed to configure connection pool", "error", err)
	}
	if err := migrate.Migrate(db); err != nil {
		zapLogger.Fatalw("failed to run migrations", "error", err)
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(middleware.Logger(zapLogger))
	engine.Use(middleware.Recovery(zapLogger))

	svc := buildReconciler(db, &cfg, zapLogger)

	healthHandler := health.New(db, zapLogger)
	engine.GET("/health", healthHandler.Check)

	reviewerRouter.RegisterRoutes(engine, db, zapLogger)
	workloadRouter.RegisterRoutes(engine, db, zapLogger)
	reconcileRouter.RegisterRoutes(engine, svc, &cfg.Scheduler, zapLogger)

	sched := buildScheduler(db, svc, &cfg, zapLogger)
	sched.Start(rootCtx)

	server := &http.Server{
		Addr:    cfg.Server.GetAddress(),
		Handler: engine,
	}

	go func() {
		zapLogger.Infow("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Errorw("server stopped", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	zapLogger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Errorw("graceful shutdown failed", "error", err)
	}

	sched.Wait()
	zapLogger.Infow("stopped")
	os.Exit(0)
}

// buildReconciler wires the reconcile service and its collaborators.
func buildReconciler(
	db *gorm.DB,
	cfg *config.Config,
	zapLogger *zap.SugaredLogger,
) reconcileService.Service {
	prs := pullrequestRepo.New(db, zapLogger)
	reviewers := reviewerRepo.New(db, zapLogger)
	teams := teamRepo.New(db, zapLogger)
	remoteClient := remote.New(&cfg.Remote, zapLogger)
	engine := assignment.New(prs, reviewers, teams, zapLogger)

	return reconcileService.New(
		prs, reviewers, teams, remoteClient, engine, &cfg.Scheduler, zapLogger)
}

// buildScheduler registers the recurring background tasks.
func buildScheduler(
	db *gorm.DB,
	svc reconcileService.Service,
	cfg *config.Config,
	zapLogger *zap.SugaredLogger,
) *scheduler.Scheduler {
	prs := pullrequestRepo.New(db, zapLogger)
	reviewers := reviewerRepo.New(db, zapLogger)
	notifier := reminder.NewHTTPNotifier(&cfg.Remote, zapLogger)
	reminders := reminder.New(prs, reviewers, notifier, &cfg.Scheduler, zapLogger)

	sched := scheduler.New(zapLogger)
	sched.Register(scheduler.Task{
		Name:       "roster-sync",
		Every:      cfg.Scheduler.RosterSyncInterval,
		Timeout:    cfg.Scheduler.CycleTimeout,
		RunOnStart: true,
		Run:        svc.SyncRoster,
	})
	sched.Register(scheduler.Task{
		Name:       "full-sync",
		Every:      cfg.Scheduler.FullSyncInterval,
		Timeout:    cfg.Scheduler.CycleTimeout,
		RunOnStart: true,
		Run:        svc.FullSync,
	})
	sched.Register(scheduler.Task{
		Name:    "reminder-sweep",
		Every:   cfg.Scheduler.ReminderInterval,
		Timeout: cfg.Scheduler.CycleTimeout,
		Run:     reminders.Sweep,
	})
	return sched
}
