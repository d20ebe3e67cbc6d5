package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/phrazzld/vidscribe/internal/videourl"
)

// Admission accepts raw submissions and turns them into queued tasks.
type Admission struct {
	registry *Registry
	queue    TaskQueueWriter
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewAdmission creates an Admission.
func NewAdmission(
	registry *Registry,
	queue TaskQueueWriter,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Admission, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Admission{
		registry: registry,
		queue:    queue,
		emitter:  emitter,
		logger:   logger.With("component", "task_admission"),
	}, nil
}

// Submit extracts the first URL from rawInput and queues a task for it.
// When a non-terminal task for the same normalized URL already exists its
// id is returned with isNew set to false and nothing is queued.
func (a *Admission) Submit(ctx context.Context, rawInput string) (taskID string, isNew bool, err error) {
	source, normalized, err := videourl.Canonicalize(rawInput)
	if err != nil {
		return "", false, err
	}

	t, isNew, err := a.registry.Admit(normalized, func() (*domain.Task, error) {
		return domain.NewTask(source, normalized)
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to admit task: %w", err)
	}

	logger := a.logger.With("task_id", t.ID, "url", normalized)
	if !isNew {
		logger.Info("reusing active task", "state", t.State)
		return t.ID, false, nil
	}

	// The queued event is handled before the task can reach the worker, so
	// the placeholder record never overwrites a final one.
	if err := a.emitter.EmitEvent(ctx, events.NewTaskEvent(events.TaskQueued, t)); err != nil {
		logger.Warn("failed to record queued task", "error", err)
	}

	if err := a.queue.Enqueue(t.ID); err != nil {
		logger.Error("failed to enqueue task", "error", err)
		if failed, uerr := a.registry.Update(t.ID, func(task *domain.Task) error {
			return task.Fail(err.Error(), time.Now().UTC())
		}); uerr == nil {
			_ = a.emitter.EmitEvent(ctx, events.NewTaskEvent(events.TaskFailed, failed))
		}
		return "", false, fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Info("task queued")
	return t.ID, true, nil
}
