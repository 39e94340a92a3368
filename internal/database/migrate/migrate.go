// Package migrate applies schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	appConfig "github.com/triageops/reviewqueue/internal/config"
)

// GetMigrationsPath returns the migrations directory, overridable via
// MIGRATIONS_PATH.
func GetMigrationsPath() string {
	return appConfig.GetEnv("MIGRATIONS_PATH", "migrations")
}

// Migrate applies all pending migrations against db. Running with the
// schema already current is not an error.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	migrationsPath, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func resolveMigrationsDir() (string, error) {
	path, err := filepath.Abs(GetMigrationsPath())
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return "", fmt.Errorf("migrations directory does not exist: %s", path)
	}
	return path, nil
}
