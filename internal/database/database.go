// Package database provides database connection management for PostgreSQL.
package database

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbConfig "github.com/triageops/reviewqueue/internal/database/config"
	"github.com/triageops/reviewqueue/pkg/retry"
)

// New creates a new database connection using environment variables,
// retrying while the database is still coming up.
func New(ctx context.Context) (*gorm.DB, error) {
	cfg := dbConfig.LoadConfigFromEnv()
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates a new database connection with custom configuration.
func NewWithConfig(ctx context.Context, cfg dbConfig.Config) (*gorm.DB, error) {
	dsn := dbConfig.BuildDSN(cfg)

	db, err := retry.DoWithResult(ctx, dbConfig.LoadRetryConfigFromEnv(), func() (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	})
	if err != nil {
		return nil, dbConfig.SanitizeError(err, cfg)
	}
	return db, nil
}

// HealthCheck verifies database connection availability.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
