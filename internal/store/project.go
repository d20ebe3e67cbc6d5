package store

import (
	"context"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// ProjectUpdate carries the user-editable attributes of a project. Nil
// fields are left unchanged.
type ProjectUpdate struct {
	Title    *string
	Tag      *string
	Favorite *bool
}

// IsEmpty reports whether the update changes nothing.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Title == nil && u.Tag == nil && u.Favorite == nil
}

// ProjectStore persists project records.
type ProjectStore interface {
	// LoadAll returns every record, newest first.
	LoadAll(ctx context.Context) ([]domain.Project, error)

	// Get returns one record or ErrProjectNotFound.
	Get(ctx context.Context, id string) (*domain.Project, error)

	// Save inserts a record or replaces an existing one. Favorite and chat
	// history of an existing record are left as stored; only UpdateAttributes
	// and SaveChatHistory change them.
	Save(ctx context.Context, p *domain.Project) error

	// Delete removes a record. It returns ErrProjectNotFound if there was none.
	Delete(ctx context.Context, id string) error

	// UpdateAttributes applies u and returns the updated record.
	UpdateAttributes(ctx context.Context, id string, u ProjectUpdate) (*domain.Project, error)

	// SaveChatHistory replaces the stored conversation of a record.
	SaveChatHistory(ctx context.Context, id string, history []domain.ChatMessage) error
}

// TagStore persists the ordered tag list.
type TagStore interface {
	// ListTags returns the tags in the order they were added.
	ListTags(ctx context.Context) ([]string, error)

	// AddTag appends name. It returns ErrTagExists for a duplicate.
	AddTag(ctx context.Context, name string) error

	// DeleteTag removes name. It returns ErrTagNotFound if it is absent.
	DeleteTag(ctx context.Context, name string) error

	// SeedTags inserts defaults when the tag list is empty.
	SeedTags(ctx context.Context, defaults []string) error
}
