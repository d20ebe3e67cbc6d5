package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/phrazzld/vidscribe/internal/redact"
)

// Runner drains the task queue with a single worker goroutine. Tasks are
// processed strictly one after another.
type Runner struct {
	registry *Registry
	queue    TaskQueueReader
	executor Executor
	emitter  events.EventEmitter
	logger   *slog.Logger

	mu         sync.Mutex
	started    bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(
	registry *Registry,
	queue TaskQueueReader,
	executor Executor,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Runner, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Runner{
		registry: registry,
		queue:    queue,
		executor: executor,
		emitter:  emitter,
		logger:   logger.With("component", "task_runner"),
	}, nil
}

// Start launches the worker goroutine.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRunnerStarted
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancelFunc = cancel

	r.wg.Add(1)
	go r.worker(ctx)

	r.logger.Info("task runner started")
	return nil
}

// Stop cancels the task in progress and waits for the worker to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancelFunc
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()

	for {
		id, err := r.queue.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				r.logger.Debug("task queue closed, stopping worker")
			} else {
				r.logger.Debug("stopping worker", "reason", err)
			}
			return
		}

		r.processTask(ctx, id)
	}
}

// processTask handles execution of a single task.
func (r *Runner) processTask(ctx context.Context, id string) {
	logger := r.logger.With("task_id", id)

	snapshot, err := r.registry.Get(id)
	if err != nil {
		logger.Debug("task deleted while queued, skipping")
		return
	}
	if snapshot.State.IsTerminal() {
		logger.Debug("task already finished, skipping", "state", snapshot.State)
		return
	}

	logger.Info("processing task", "url", snapshot.NormalizedURL)
	started := time.Now()

	result, err := r.execute(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		logger.Info("task deleted during processing")
		return
	}
	if err != nil {
		logger.Error("task execution failed", "error", err, "duration", time.Since(started))
		r.fail(ctx, id, err)
		return
	}

	done, err := r.registry.Update(id, func(t *domain.Task) error {
		return t.Complete(result, time.Now().UTC())
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			logger.Error("failed to mark task done", "error", err)
		}
		return
	}

	logger.Info("task completed successfully", "duration", time.Since(started))
	r.emit(ctx, events.TaskCompleted, done)
}

// execute runs the executor, converting a panic into an error.
func (r *Runner) execute(ctx context.Context, id string) (result domain.TaskResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recovered from panic in task",
				"task_id", id,
				"panic", rec,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, rec)
		}
	}()

	return r.executor.Execute(ctx, id)
}

func (r *Runner) fail(ctx context.Context, id string, cause error) {
	failed, err := r.registry.Update(id, func(t *domain.Task) error {
		return t.Fail(redact.Error(cause), time.Now().UTC())
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			r.logger.Error("failed to mark task failed", "task_id", id, "error", err)
		}
		return
	}
	r.emit(ctx, events.TaskFailed, failed)
}

// emit publishes on a context detached from cancellation so a final record
// is still written while the runner shuts down.
func (r *Runner) emit(ctx context.Context, eventType events.TaskEventType, t domain.Task) {
	if err := r.emitter.EmitEvent(context.WithoutCancel(ctx), events.NewTaskEvent(eventType, t)); err != nil {
		r.logger.Warn("failed to emit task event",
			"task_id", t.ID,
			"event_type", eventType,
			"error", err)
	}
}
