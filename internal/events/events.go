package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vidscribe/internal/domain"
)

// TaskEventType identifies what happened to a task.
type TaskEventType string

// Lifecycle event types.
const (
	TaskQueued       TaskEventType = "task.queued"
	TaskStateChanged TaskEventType = "task.state_changed"
	TaskCompleted    TaskEventType = "task.completed"
	TaskFailed       TaskEventType = "task.failed"
)

// TaskEvent describes a change in a task's lifecycle.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type TaskEventType `json:"type"`

	// Task is a snapshot taken when the event was emitted
	Task domain.Task `json:"task"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates an event carrying a snapshot of task.
func NewTaskEvent(eventType TaskEventType, task domain.Task) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Task:      task.Clone(),
		CreatedAt: time.Now().UTC(),
	}
}

// IsTerminal reports whether the event closes the task's lifecycle.
func (e *TaskEvent) IsTerminal() bool {
	return e.Type == TaskCompleted || e.Type == TaskFailed
}

// EventHandler defines an interface for components that react to events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}
