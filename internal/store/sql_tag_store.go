package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/vidscribe/internal/platform/logger"
)

// SQLTagStore implements TagStore over database/sql. Tags keep the order in
// which they were added.
type SQLTagStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewSQLTagStore creates a tag store. If logger is nil the default logger
// is used.
func NewSQLTagStore(db *sql.DB, dialect Dialect, log *slog.Logger) (*SQLTagStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if dialect == nil {
		return nil, ErrNilDialect
	}
	if log == nil {
		log = slog.Default()
	}

	return &SQLTagStore{
		db:      db,
		dialect: dialect,
		logger:  log.With("component", "tag_store", "driver", dialect.Name()),
	}, nil
}

var _ TagStore = (*SQLTagStore)(nil)

// ListTags implements TagStore.ListTags.
func (s *SQLTagStore) ListTags(ctx context.Context) ([]string, error) {
	return listTags(ctx, s.db, s.dialect)
}

// AddTag implements TagStore.AddTag.
func (s *SQLTagStore) AddTag(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: tag name cannot be empty", ErrInvalidEntity)
	}

	err := RunInTransaction(logger.WithLogger(ctx, s.logger), s.db, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := tagExists(ctx, tx, s.dialect, name)
		if err != nil {
			return err
		}
		if exists {
			return ErrTagExists
		}
		return insertTag(ctx, tx, s.dialect, name)
	})
	if err != nil {
		if IsDuplicateError(err) {
			return ErrTagExists
		}
		return NewStoreError("tag", "add", "failed to add tag", err)
	}

	s.logger.InfoContext(ctx, "tag added", "tag", name)
	return nil
}

// DeleteTag implements TagStore.DeleteTag.
func (s *SQLTagStore) DeleteTag(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM tags WHERE name = ?`), strings.TrimSpace(name))
	if err != nil {
		return NewStoreError("tag", "delete", "failed to delete tag", s.dialect.MapError(err))
	}
	if err := checkAffected(result, ErrTagNotFound); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "tag deleted", "tag", name)
	return nil
}

// SeedTags implements TagStore.SeedTags.
func (s *SQLTagStore) SeedTags(ctx context.Context, defaults []string) error {
	seeded := 0
	err := RunInTransaction(logger.WithLogger(ctx, s.logger), s.db, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := listTags(ctx, tx, s.dialect)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		seen := make(map[string]bool, len(defaults))
		for _, name := range defaults {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if err := insertTag(ctx, tx, s.dialect, name); err != nil {
				return err
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		return NewStoreError("tag", "seed", "failed to seed tags", err)
	}

	if seeded > 0 {
		s.logger.InfoContext(ctx, "seeded default tags", "count", seeded)
	}
	return nil
}

func listTags(ctx context.Context, db DBTX, dialect Dialect) ([]string, error) {
	rows, err := db.QueryContext(ctx, dialect.Rebind(`SELECT name FROM tags ORDER BY position, name`))
	if err != nil {
		return nil, NewStoreError("tag", "list", "failed to query tags", dialect.MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, NewStoreError("tag", "list", "failed to scan tag", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError("tag", "list", "failed to iterate tags", err)
	}
	return tags, nil
}

func tagExists(ctx context.Context, db DBTX, dialect Dialect, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, dialect.Rebind(`SELECT COUNT(*) FROM tags WHERE name = ?`), name).Scan(&n)
	if err != nil {
		return false, dialect.MapError(err)
	}
	return n > 0, nil
}

func insertTag(ctx context.Context, db DBTX, dialect Dialect, name string) error {
	query := `INSERT INTO tags (name, position) SELECT CAST(? AS TEXT), COALESCE(MAX(position), 0) + 1 FROM tags`
	if _, err := db.ExecContext(ctx, dialect.Rebind(query), name); err != nil {
		return dialect.MapError(err)
	}
	return nil
}
