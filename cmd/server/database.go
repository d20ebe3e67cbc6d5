package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vidscribe/internal/config"
	"github.com/phrazzld/vidscribe/internal/platform/postgres"
	"github.com/phrazzld/vidscribe/internal/platform/sqlite"
	"github.com/phrazzld/vidscribe/internal/store"
)

// openDatabase connects to the configured driver and applies migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL, logger)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// newStores builds the project and tag stores for an open database.
func newStores(
	driver string,
	db *sql.DB,
	logger *slog.Logger,
) (store.ProjectStore, store.TagStore, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.NewStores(db, logger)
	case config.DriverPostgres:
		return postgres.NewStores(db, logger)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
