package api

import (
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// ProcessRequest is the payload of POST /api/process. URL may be free text
// containing a link.
type ProcessRequest struct {
	URL string `json:"url" validate:"required,max=4096"`
}

// ProcessResponse reports the task handling a submission.
type ProcessResponse struct {
	TaskID string `json:"task_id"`
	Reused bool   `json:"reused"`
}

// ProjectSummary is one row of the project list. It leaves out the
// transcript, summary and chat history.
type ProjectSummary struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	VideoURL          string                `json:"video_url"`
	Author            string                `json:"author"`
	UploadDate        string                `json:"upload_date"`
	ThumbnailURL      string                `json:"thumbnail_url"`
	AuthorAvatarURL   string                `json:"author_avatar_url"`
	AuthorHomepageURL string                `json:"author_homepage_url"`
	SubtitleSource    domain.SubtitleSource `json:"subtitle_source"`
	Status            domain.TaskState      `json:"status"`
	Message           string                `json:"message"`
	Error             string                `json:"error,omitempty"`
	Progress          float64               `json:"progress"`
	Tag               string                `json:"tag"`
	Favorite          bool                  `json:"favorite"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// UpdateProjectRequest is the payload of PATCH /api/projects/{id}. Absent
// fields are left unchanged.
type UpdateProjectRequest struct {
	Title    *string `json:"title"    validate:"omitempty,max=500"`
	Tag      *string `json:"tag"      validate:"omitempty,max=100"`
	Favorite *bool   `json:"favorite"`
}

// UpdateProjectResponse echoes the project's editable attributes.
type UpdateProjectResponse struct {
	OK       bool   `json:"ok"`
	Title    string `json:"title"`
	Tag      string `json:"tag"`
	Favorite bool   `json:"favorite"`
}

// OKResponse acknowledges an operation with no other result.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ChatRequest is the payload of POST /api/chat. Transcript is only used when
// the project has no saved transcript yet.
type ChatRequest struct {
	ProjectID  string `json:"project_id" validate:"required,max=128"`
	Message    string `json:"message"    validate:"required,max=10000"`
	Transcript string `json:"transcript"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// TagRequest names a tag to add or remove.
type TagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// TagsResponse returns the tag list after a change.
type TagsResponse struct {
	OK   bool     `json:"ok"`
	Tags []string `json:"tags"`
}

// ClassifyAllResponse reports a batch classification.
type ClassifyAllResponse struct {
	OK         bool `json:"ok"`
	Classified int  `json:"classified"`
	Failed     int  `json:"failed"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func projectToSummary(p domain.Project) ProjectSummary {
	return ProjectSummary{
		ID:                p.ID,
		Title:             p.Title,
		VideoURL:          p.VideoURL,
		Author:            p.Author,
		UploadDate:        p.UploadDate,
		ThumbnailURL:      p.ThumbnailURL,
		AuthorAvatarURL:   p.AuthorAvatarURL,
		AuthorHomepageURL: p.AuthorHomepageURL,
		SubtitleSource:    p.SubtitleSource,
		Status:            p.Status,
		Message:           p.Message,
		Error:             p.Error,
		Progress:          p.Progress,
		Tag:               p.Tag,
		Favorite:          p.Favorite,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
