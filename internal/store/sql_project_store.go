package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/platform/logger"
)

var (
	// ErrNilDB is returned when a store is created without a database.
	ErrNilDB = errors.New("database cannot be nil")

	// ErrNilDialect is returned when a store is created without a dialect.
	ErrNilDialect = errors.New("dialect cannot be nil")
)

const projectColumns = `id, title, video_url, author, upload_date, thumbnail_url,
	author_avatar_url, author_homepage_url, subtitle_source, transcript, segments,
	summary, tag, favorite, status, message, error_message, progress, chat_history,
	created_at, updated_at`

// SQLProjectStore implements ProjectStore over database/sql.
type SQLProjectStore struct {
	db      DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewSQLProjectStore creates a project store. If logger is nil the default
// logger is used.
func NewSQLProjectStore(db DBTX, dialect Dialect, log *slog.Logger) (*SQLProjectStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if dialect == nil {
		return nil, ErrNilDialect
	}
	if log == nil {
		log = slog.Default()
	}

	return &SQLProjectStore{
		db:      db,
		dialect: dialect,
		logger:  log.With("component", "project_store", "driver", dialect.Name()),
	}, nil
}

var _ ProjectStore = (*SQLProjectStore)(nil)

// LoadAll implements ProjectStore.LoadAll.
func (s *SQLProjectStore) LoadAll(ctx context.Context) ([]domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query))
	if err != nil {
		log.Error("failed to query projects", "error", err)
		return nil, NewStoreError("project", "load", "failed to query projects", s.dialect.MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			log.Error("failed to scan project row", "error", err)
			return nil, NewStoreError("project", "load", "failed to scan project", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating project rows", "error", err)
		return nil, NewStoreError("project", "load", "failed to iterate projects", err)
	}
	return projects, nil
}

// Get implements ProjectStore.Get.
func (s *SQLProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	p, err := scanProject(s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get project", "project_id", id, "error", err)
		return nil, NewStoreError("project", "get", "failed to get project", s.dialect.MapError(err))
	}
	return p, nil
}

// Save implements ProjectStore.Save. On conflict favorite and chat_history
// keep their stored values.
func (s *SQLProjectStore) Save(ctx context.Context, p *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if p == nil {
		return fmt.Errorf("%w: project cannot be nil", ErrInvalidEntity)
	}
	if err := p.Validate(); err != nil {
		log.Warn("project validation failed during save", "project_id", p.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	segments, err := marshalList(p.Segments)
	if err != nil {
		return NewStoreError("project", "save", "failed to encode segments", err)
	}
	history, err := marshalList(p.ChatHistory)
	if err != nil {
		return NewStoreError("project", "save", "failed to encode chat history", err)
	}

	createdAt, updatedAt := p.CreatedAt, p.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			video_url = excluded.video_url,
			author = excluded.author,
			upload_date = excluded.upload_date,
			thumbnail_url = excluded.thumbnail_url,
			author_avatar_url = excluded.author_avatar_url,
			author_homepage_url = excluded.author_homepage_url,
			subtitle_source = excluded.subtitle_source,
			transcript = excluded.transcript,
			segments = excluded.segments,
			summary = excluded.summary,
			tag = excluded.tag,
			status = excluded.status,
			message = excluded.message,
			error_message = excluded.error_message,
			progress = excluded.progress,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, s.dialect.Rebind(query),
		p.ID,
		p.Title,
		p.VideoURL,
		p.Author,
		p.UploadDate,
		p.ThumbnailURL,
		p.AuthorAvatarURL,
		p.AuthorHomepageURL,
		string(p.SubtitleSource),
		p.Transcript,
		segments,
		p.Summary,
		p.Tag,
		p.Favorite,
		string(p.Status),
		p.Message,
		p.Error,
		p.Progress,
		history,
		s.dialect.TimeValue(createdAt),
		s.dialect.TimeValue(updatedAt),
	)
	if err != nil {
		log.Error("failed to save project", "project_id", p.ID, "error", err)
		return NewStoreError("project", "save", "failed to save project", s.dialect.MapError(err))
	}

	log.Debug("project saved", "project_id", p.ID, "status", p.Status)
	return nil
}

// Delete implements ProjectStore.Delete.
func (s *SQLProjectStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete project", "project_id", id, "error", err)
		return NewStoreError("project", "delete", "failed to delete project", s.dialect.MapError(err))
	}
	return checkAffected(result, ErrProjectNotFound)
}

// UpdateAttributes implements ProjectStore.UpdateAttributes.
func (s *SQLProjectStore) UpdateAttributes(ctx context.Context, id string, u ProjectUpdate) (*domain.Project, error) {
	if u.IsEmpty() {
		return s.Get(ctx, id)
	}

	var title, tag, favorite any
	if u.Title != nil {
		title = *u.Title
	}
	if u.Tag != nil {
		tag = *u.Tag
	}
	if u.Favorite != nil {
		favorite = *u.Favorite
	}

	query := `
		UPDATE projects
		SET title = COALESCE(?, title),
			tag = COALESCE(?, tag),
			favorite = COALESCE(?, favorite),
			updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(query),
		title, tag, favorite, s.dialect.TimeValue(time.Now().UTC()), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update project", "project_id", id, "error", err)
		return nil, NewStoreError("project", "update", "failed to update project", s.dialect.MapError(err))
	}
	if err := checkAffected(result, ErrProjectNotFound); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SaveChatHistory implements ProjectStore.SaveChatHistory.
func (s *SQLProjectStore) SaveChatHistory(ctx context.Context, id string, history []domain.ChatMessage) error {
	encoded, err := marshalList(history)
	if err != nil {
		return NewStoreError("project", "save_chat", "failed to encode chat history", err)
	}

	query := `UPDATE projects SET chat_history = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(query),
		encoded, s.dialect.TimeValue(time.Now().UTC()), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save chat history", "project_id", id, "error", err)
		return NewStoreError("project", "save_chat", "failed to save chat history", s.dialect.MapError(err))
	}
	return checkAffected(result, ErrProjectNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p              domain.Project
		subtitleSource string
		status         string
		segments       []byte
		history        []byte
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.VideoURL,
		&p.Author,
		&p.UploadDate,
		&p.ThumbnailURL,
		&p.AuthorAvatarURL,
		&p.AuthorHomepageURL,
		&subtitleSource,
		&p.Transcript,
		&segments,
		&p.Summary,
		&p.Tag,
		&p.Favorite,
		&status,
		&p.Message,
		&p.Error,
		&p.Progress,
		&history,
		timestamp{&p.CreatedAt},
		timestamp{&p.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}

	p.SubtitleSource = domain.SubtitleSource(subtitleSource)
	p.Status = domain.TaskState(status)
	if err := unmarshalList(segments, &p.Segments); err != nil {
		return nil, fmt.Errorf("failed to decode segments of %s: %w", p.ID, err)
	}
	if err := unmarshalList(history, &p.ChatHistory); err != nil {
		return nil, fmt.Errorf("failed to decode chat history of %s: %w", p.ID, err)
	}
	return &p, nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalList[T any](raw []byte, dst *[]T) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
