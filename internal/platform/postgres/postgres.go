package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/vidscribe/internal/redact"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Connection pool settings.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 10 * time.Second
)

// Dialect is the store.Dialect for PostgreSQL.
type Dialect struct{}

var _ store.Dialect = Dialect{}

// Name implements store.Dialect.
func (Dialect) Name() string { return "postgres" }

// Rebind implements store.Dialect.
func (Dialect) Rebind(query string) string { return store.RebindDollar(query) }

// TimeValue implements store.Dialect.
func (Dialect) TimeValue(t time.Time) any { return t.UTC() }

// MapError implements store.Dialect.
func (Dialect) MapError(err error) error { return MapError(err) }

// Open connects to databaseURL and applies pending migrations.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "postgres")

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %s", redact.Error(err))
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	if err := Migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("database connection established")
	return db, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// NewStores creates the project and tag stores over db.
func NewStores(db *sql.DB, logger *slog.Logger) (*store.SQLProjectStore, *store.SQLTagStore, error) {
	if db == nil {
		return nil, nil, store.ErrNilDB
	}
	projects, err := store.NewSQLProjectStore(db, Dialect{}, logger)
	if err != nil {
		return nil, nil, err
	}
	tags, err := store.NewSQLTagStore(db, Dialect{}, logger)
	if err != nil {
		return nil, nil, err
	}
	return projects, tags, nil
}
