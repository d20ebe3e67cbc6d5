package domain

import (
	"fmt"
	"strings"
	"time"
)

// Chat roles stored in a project's history.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of a follow-up conversation about a video.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Project is the persisted record of a task. A placeholder is written when a
// task is admitted and replaced once the task reaches a terminal state.
type Project struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	VideoURL          string         `json:"video_url"`
	Author            string         `json:"author"`
	UploadDate        string         `json:"upload_date"`
	ThumbnailURL      string         `json:"thumbnail_url"`
	AuthorAvatarURL   string         `json:"author_avatar_url"`
	AuthorHomepageURL string         `json:"author_homepage_url"`
	SubtitleSource    SubtitleSource `json:"subtitle_source"`
	Transcript        string         `json:"transcript"`
	Segments          []Segment      `json:"segments"`
	Summary           string         `json:"summary"`
	Tag               string         `json:"tag"`
	Favorite          bool           `json:"favorite"`
	Status            TaskState      `json:"status"`
	Message           string         `json:"message"`
	Error             string         `json:"error,omitempty"`
	Progress          float64        `json:"progress"`
	ChatHistory       []ChatMessage  `json:"chat_history"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Validate checks the fields the stores rely on.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: project ID cannot be empty", ErrValidation)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: invalid project status %q", ErrValidation, p.Status)
	}
	return nil
}

// ProjectFromTask builds the persisted record for a task snapshot. Fields only
// owned by the record (favorite, chat history) are taken from prev when given.
func ProjectFromTask(t Task, placeholderTitle string, prev *Project) Project {
	p := Project{
		ID:        t.ID,
		Title:     placeholderTitle,
		VideoURL:  t.NormalizedURL,
		Status:    t.State,
		Message:   t.Message,
		Error:     t.Error,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Progress != nil {
		p.Progress = *t.Progress
	}
	if t.Result != nil {
		r := t.Result
		if r.Metadata.Title != "" {
			p.Title = r.Metadata.Title
		}
		p.Author = r.Metadata.Author
		p.UploadDate = r.Metadata.UploadDate
		p.ThumbnailURL = r.Metadata.ThumbnailURL
		p.AuthorAvatarURL = r.Metadata.AuthorAvatarURL
		p.AuthorHomepageURL = r.Metadata.AuthorHomepageURL
		p.SubtitleSource = r.Transcript.Source
		p.Segments = append([]Segment(nil), r.Transcript.Segments...)
		p.Transcript = r.Transcript.Timestamped()
		p.Summary = r.Summary
		p.Tag = r.Tag
	}
	if prev != nil {
		p.Favorite = prev.Favorite
		p.ChatHistory = append([]ChatMessage(nil), prev.ChatHistory...)
		if p.Tag == "" {
			p.Tag = prev.Tag
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = prev.CreatedAt
		}
	}
	return p
}

// OverlayTask refreshes the record's live fields from an in-memory task that
// has not been persisted in its final form yet.
func (p *Project) OverlayTask(t Task) {
	p.Status = t.State
	p.Message = t.Message
	p.Error = t.Error
	p.UpdatedAt = t.UpdatedAt
	if p.VideoURL == "" {
		p.VideoURL = t.NormalizedURL
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.CreatedAt
	}
	if t.Progress != nil {
		p.Progress = *t.Progress
	}
	if t.Result != nil {
		merged := ProjectFromTask(t, p.Title, p)
		*p = merged
	}
}
