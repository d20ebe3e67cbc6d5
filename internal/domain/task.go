package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the stage a video task has reached.
type TaskState string

// Possible task states, in pipeline order.
const (
	TaskStateQueued              TaskState = "queued"
	TaskStateExtractingMetadata  TaskState = "extracting_metadata"
	TaskStateExtractingSubtitles TaskState = "extracting_subtitles"
	TaskStateTranscribing        TaskState = "transcribing"
	TaskStateSummarizing         TaskState = "summarizing"
	TaskStateDone                TaskState = "done"
	TaskStateFailed              TaskState = "failed"
)

// Ordinal returns the position of the state in the pipeline. Done and Failed
// share the highest ordinal. Unknown states return -1.
func (s TaskState) Ordinal() int {
	switch s {
	case TaskStateQueued:
		return 0
	case TaskStateExtractingMetadata:
		return 1
	case TaskStateExtractingSubtitles:
		return 2
	case TaskStateTranscribing:
		return 3
	case TaskStateSummarizing:
		return 4
	case TaskStateDone, TaskStateFailed:
		return 5
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateDone || s == TaskStateFailed
}

// IsValid reports whether s is one of the known states.
func (s TaskState) IsValid() bool {
	return s.Ordinal() >= 0
}

// CanTransitionTo reports whether a task in state s may move to next.
// Failed is reachable from any non-terminal state; every other move must
// strictly increase the ordinal.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == TaskStateFailed {
		return true
	}
	return next.Ordinal() > s.Ordinal()
}

// TaskResult is the output of a completed pipeline.
type TaskResult struct {
	Metadata   Metadata   `json:"metadata"`
	Transcript Transcript `json:"transcript"`
	Summary    string     `json:"summary"`
	Tag        string     `json:"tag,omitempty"`
}

// Task is one video processing job from submission to terminal outcome.
type Task struct {
	ID            string      `json:"id"`
	SourceURL     string      `json:"source_url"`
	NormalizedURL string      `json:"normalized_url"`
	State         TaskState   `json:"state"`
	Message       string      `json:"message,omitempty"`
	Progress      *float64    `json:"progress,omitempty"`
	Result        *TaskResult `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewTask creates a queued task for an already normalized URL.
func NewTask(sourceURL, normalizedURL string) (*Task, error) {
	if normalizedURL == "" {
		return nil, fmt.Errorf("%w: normalized URL cannot be empty", ErrValidation)
	}

	now := time.Now().UTC()
	return &Task{
		ID:            uuid.New().String(),
		SourceURL:     sourceURL,
		NormalizedURL: normalizedURL,
		State:         TaskStateQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Transition moves the task to next, stamping UpdatedAt. Progress is cleared
// when leaving the transcribing state.
func (t *Task) Transition(next TaskState, now time.Time) error {
	if t.State.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, t.State)
	}
	if !t.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, next)
	}

	if t.State == TaskStateTranscribing && next != TaskStateTranscribing {
		t.Progress = nil
	}
	t.State = next
	t.UpdatedAt = now
	return nil
}

// Fail moves the task to the failed state and records the cause.
func (t *Task) Fail(cause string, now time.Time) error {
	if err := t.Transition(TaskStateFailed, now); err != nil {
		return err
	}
	t.Error = cause
	t.Result = nil
	return nil
}

// Complete moves the task to done with the given result.
func (t *Task) Complete(result TaskResult, now time.Time) error {
	if err := t.Transition(TaskStateDone, now); err != nil {
		return err
	}
	t.Result = &result
	t.Error = ""
	return nil
}

// SetProgress records transcription progress, clamped to [0, 100]. It is a
// no-op outside the transcribing state.
func (t *Task) SetProgress(percent float64, now time.Time) {
	if t.State != TaskStateTranscribing {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.Progress = &percent
	t.UpdatedAt = now
}

// Clone returns a deep copy safe to hand to another goroutine.
func (t *Task) Clone() Task {
	c := *t
	if t.Progress != nil {
		p := *t.Progress
		c.Progress = &p
	}
	if t.Result != nil {
		r := *t.Result
		r.Transcript.Segments = append([]Segment(nil), t.Result.Transcript.Segments...)
		c.Result = &r
	}
	return c
}
