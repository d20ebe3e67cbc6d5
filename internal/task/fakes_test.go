package task

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingEmitter captures emitted events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) types(taskID string) []events.TaskEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []events.TaskEventType
	for _, ev := range e.events {
		if ev.Task.ID == taskID {
			out = append(out, ev.Type)
		}
	}
	return out
}

func (e *recordingEmitter) states(taskID string) []domain.TaskState {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.TaskState
	for _, ev := range e.events {
		if ev.Task.ID == taskID {
			out = append(out, ev.Task.State)
		}
	}
	return out
}

// executorFunc adapts a function to Executor.
type executorFunc func(ctx context.Context, taskID string) (domain.TaskResult, error)

func (f executorFunc) Execute(ctx context.Context, taskID string) (domain.TaskResult, error) {
	return f(ctx, taskID)
}

type fakeMetadata struct {
	meta domain.Metadata
	err  error
}

func (f *fakeMetadata) ExtractMetadata(context.Context, string) (domain.Metadata, error) {
	return f.meta, f.err
}

type fakeSubtitles struct {
	transcript domain.Transcript
	err        error
}

func (f *fakeSubtitles) FetchSubtitles(context.Context, string) (domain.Transcript, error) {
	return f.transcript, f.err
}

type fakeTranscriber struct {
	transcript domain.Transcript
	err        error
	progress   []float64
	called     bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, onProgress ProgressFunc) (domain.Transcript, error) {
	f.called = true
	for _, p := range f.progress {
		onProgress(p)
	}
	return f.transcript, f.err
}

type fakeSummarizer struct {
	summary  string
	err      error
	gotInput string
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string, _ domain.Metadata) (string, error) {
	f.gotInput = transcript
	return f.summary, f.err
}

type fakeClassifier struct {
	tag string
	err error
}

func (f *fakeClassifier) ClassifyTag(context.Context, string) (string, error) {
	return f.tag, f.err
}
