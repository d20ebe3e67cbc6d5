package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
	"github.com/phrazzld/vidscribe/internal/videourl"
)

// ProjectRecorder persists project records in response to task events.
// A placeholder is written when a task is queued and replaced by the final
// record once the task completes or fails. Intermediate state changes are
// not written; readers overlay them from the registry.
type ProjectRecorder struct {
	projects store.ProjectStore
	registry *task.Registry
	logger   *slog.Logger
}

// NewProjectRecorder creates a ProjectRecorder.
func NewProjectRecorder(
	projects store.ProjectStore,
	registry *task.Registry,
	logger *slog.Logger,
) (*ProjectRecorder, error) {
	if projects == nil {
		return nil, nilDependency("project_recorder", "projects")
	}
	if registry == nil {
		return nil, nilDependency("project_recorder", "registry")
	}
	if logger == nil {
		return nil, nilDependency("project_recorder", "logger")
	}

	return &ProjectRecorder{
		projects: projects,
		registry: registry,
		logger:   logger.With("component", "project_recorder"),
	}, nil
}

// HandleEvent implements events.EventHandler.
func (r *ProjectRecorder) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	switch event.Type {
	case events.TaskQueued, events.TaskCompleted, events.TaskFailed:
	default:
		return nil
	}

	t := event.Task
	logger := r.logger.With("task_id", t.ID, "event_type", event.Type)

	// A task deleted while its final event was in flight must not come back.
	if _, err := r.registry.Get(t.ID); err != nil {
		logger.Debug("task no longer registered, skipping record")
		return nil
	}

	prev, err := r.projects.Get(ctx, t.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load project %s: %w", t.ID, err)
	}

	title := videourl.InferTitle(t.NormalizedURL)
	if prev != nil && prev.Title != "" {
		title = prev.Title
	}

	record := domain.ProjectFromTask(t, title, prev)
	if err := r.projects.Save(ctx, &record); err != nil {
		return fmt.Errorf("failed to save project %s: %w", t.ID, err)
	}

	logger.Debug("project record saved", "status", record.Status)
	return nil
}

var _ events.EventHandler = (*ProjectRecorder)(nil)
