package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
	"github.com/phrazzld/vidscribe/internal/videourl"
)

// Submitter queues raw submissions as tasks.
type Submitter interface {
	Submit(ctx context.Context, rawInput string) (taskID string, isNew bool, err error)
}

// TaskSource exposes the in-memory task registry.
type TaskSource interface {
	Get(id string) (domain.Task, error)
	List() []domain.Task
	Delete(id string) bool
}

// SessionCloser drops cached chat state for a project.
type SessionCloser interface {
	CloseSession(projectID string)
}

// SubmitResult is the outcome of a submission.
type SubmitResult struct {
	TaskID string `json:"task_id"`
	Reused bool   `json:"reused"`
}

// ClassifyResult reports the outcome of a batch classification.
type ClassifyResult struct {
	Classified int `json:"classified"`
	Failed     int `json:"failed"`
}

// VideoService implements submission, status and project management.
type VideoService struct {
	submitter  Submitter
	tasks      TaskSource
	projects   store.ProjectStore
	tags       store.TagStore
	classifier *TagClassifier
	sessions   SessionCloser
	logger     *slog.Logger
}

// VideoServiceDeps holds the collaborators of a VideoService.
type VideoServiceDeps struct {
	Submitter  Submitter
	Tasks      TaskSource
	Projects   store.ProjectStore
	Tags       store.TagStore
	Classifier *TagClassifier
	// Sessions is optional
	Sessions SessionCloser
}

// NewVideoService creates a VideoService.
// It returns an error if any required dependency is nil.
func NewVideoService(deps VideoServiceDeps, logger *slog.Logger) (*VideoService, error) {
	if deps.Submitter == nil {
		return nil, nilDependency("video", "submitter")
	}
	if deps.Tasks == nil {
		return nil, nilDependency("video", "tasks")
	}
	if deps.Projects == nil {
		return nil, nilDependency("video", "projects")
	}
	if deps.Tags == nil {
		return nil, nilDependency("video", "tags")
	}
	if deps.Classifier == nil {
		return nil, nilDependency("video", "classifier")
	}
	if logger == nil {
		return nil, nilDependency("video", "logger")
	}

	return &VideoService{
		submitter:  deps.Submitter,
		tasks:      deps.Tasks,
		projects:   deps.Projects,
		tags:       deps.Tags,
		classifier: deps.Classifier,
		sessions:   deps.Sessions,
		logger:     logger.With("component", "video_service"),
	}, nil
}

// Submit queues rawInput for processing, reusing an active task for the
// same video.
func (s *VideoService) Submit(ctx context.Context, rawInput string) (SubmitResult, error) {
	id, isNew, err := s.submitter.Submit(ctx, rawInput)
	if err != nil {
		return SubmitResult{}, NewServiceError("video", "submit", "failed to submit video", err)
	}
	return SubmitResult{TaskID: id, Reused: !isNew}, nil
}

// GetStatus returns the live snapshot of a task.
func (s *VideoService) GetStatus(_ context.Context, taskID string) (domain.Task, error) {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return domain.Task{}, NewServiceError("video", "get_status", "failed to get task", err)
	}
	return t, nil
}

// ListProjects returns persisted records merged with in-memory tasks,
// newest first. Live task state wins over the persisted state.
func (s *VideoService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	records, err := s.projects.LoadAll(ctx)
	if err != nil {
		return nil, NewServiceError("video", "list_projects", "failed to load projects", err)
	}

	byID := make(map[string]int, len(records))
	for i := range records {
		byID[records[i].ID] = i
	}

	for _, t := range s.tasks.List() {
		if i, ok := byID[t.ID]; ok {
			records[i].OverlayTask(t)
			continue
		}
		p := domain.ProjectFromTask(t, videourl.InferTitle(t.NormalizedURL), nil)
		byID[t.ID] = len(records)
		records = append(records, p)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// GetProject returns a persisted record overlaid with its live task, or a
// record built from the task alone when nothing has been persisted yet.
func (s *VideoService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	record, err := s.projects.Get(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, NewServiceError("video", "get_project", "failed to load project", err)
	}

	t, terr := s.tasks.Get(id)
	switch {
	case record == nil && terr != nil:
		return nil, domain.ErrProjectNotFound
	case record == nil:
		p := domain.ProjectFromTask(t, videourl.InferTitle(t.NormalizedURL), nil)
		return &p, nil
	case terr == nil:
		record.OverlayTask(t)
	}
	return record, nil
}

// UpdateProject changes the user-editable attributes of a project. A blank
// title is ignored.
func (s *VideoService) UpdateProject(ctx context.Context, id string, u store.ProjectUpdate) (*domain.Project, error) {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			u.Title = nil
		} else {
			u.Title = &title
		}
	}
	if u.Tag != nil {
		tag := strings.TrimSpace(*u.Tag)
		u.Tag = &tag
	}

	p, err := s.projects.UpdateAttributes(ctx, id, u)
	if err != nil {
		return nil, NewServiceError("video", "update_project", "failed to update project", err)
	}
	return p, nil
}

// DeleteProject removes the persisted record, the in-memory task and any
// chat session for id.
func (s *VideoService) DeleteProject(ctx context.Context, id string) error {
	hadTask := s.tasks.Delete(id)
	if s.sessions != nil {
		s.sessions.CloseSession(id)
	}

	err := s.projects.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) && hadTask {
		err = nil
	}
	if err != nil {
		return NewServiceError("video", "delete_project", "failed to delete project", err)
	}

	s.logger.Info("project deleted", "project_id", id, "had_task", hadTask)
	return nil
}

// ListTags returns the tag list in display order.
func (s *VideoService) ListTags(ctx context.Context) ([]string, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, NewServiceError("video", "list_tags", "failed to load tags", err)
	}
	return tags, nil
}

// AddTag appends name to the tag list and returns the updated list.
func (s *VideoService) AddTag(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTagName
	}
	if err := s.tags.AddTag(ctx, name); err != nil {
		return nil, NewServiceError("video", "add_tag", "failed to add tag", err)
	}
	return s.ListTags(ctx)
}

// DeleteTag removes name from the tag list and returns the updated list.
// Projects keep the tag they were given.
func (s *VideoService) DeleteTag(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTagName
	}
	if err := s.tags.DeleteTag(ctx, name); err != nil {
		return nil, NewServiceError("video", "delete_tag", "failed to delete tag", err)
	}
	return s.ListTags(ctx)
}

// ClassifyAll tags every finished, untagged project. Individual failures are
// counted and do not stop the batch.
func (s *VideoService) ClassifyAll(ctx context.Context) (ClassifyResult, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return ClassifyResult{}, NewServiceError("video", "classify_all", "failed to load tags", err)
	}
	if len(tags) == 0 {
		return ClassifyResult{}, ErrNoTags
	}

	records, err := s.projects.LoadAll(ctx)
	if err != nil {
		return ClassifyResult{}, NewServiceError("video", "classify_all", "failed to load projects", err)
	}

	var result ClassifyResult
	for _, p := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if p.Tag != "" || p.Status != domain.TaskStateDone {
			continue
		}
		title := strings.TrimSpace(p.Title)
		if title == "" || title == videourl.InferTitle(p.VideoURL) {
			continue
		}

		logger := s.logger.With("project_id", p.ID)
		tag, err := s.classifier.classifyWith(ctx, title, tags)
		if err == nil {
			_, err = s.projects.UpdateAttributes(ctx, p.ID, store.ProjectUpdate{Tag: &tag})
		}
		if err != nil {
			logger.Warn("failed to classify project", "error", err)
			result.Failed++
			continue
		}
		logger.Info("classified project", "tag", tag)
		result.Classified++
	}

	return result, nil
}

var _ TaskSource = (*task.Registry)(nil)
