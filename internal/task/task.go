package task

import (
	"context"
	"errors"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// Common errors
var (
	ErrNilRegistry     = errors.New("registry cannot be nil")
	ErrNilQueue        = errors.New("task queue cannot be nil")
	ErrNilExecutor     = errors.New("executor cannot be nil")
	ErrNilEmitter      = errors.New("event emitter cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrNilCollaborator = errors.New("pipeline collaborator cannot be nil")
	ErrRunnerStarted   = errors.New("runner already started")
	ErrTaskPanicked    = errors.New("task panicked")
)

// MetadataExtractor looks up descriptive information about a video.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, videoURL string) (domain.Metadata, error)
}

// SubtitleFetcher downloads published or auto-generated captions.
// It returns domain.ErrSubtitlesUnavailable when the video has none.
type SubtitleFetcher interface {
	FetchSubtitles(ctx context.Context, videoURL string) (domain.Transcript, error)
}

// ProgressFunc receives transcription progress as a percentage.
type ProgressFunc func(percent float64)

// Transcriber produces a transcript from the video's audio track.
type Transcriber interface {
	Transcribe(ctx context.Context, videoURL string, onProgress ProgressFunc) (domain.Transcript, error)
}

// Summarizer writes a summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, metadata domain.Metadata) (string, error)
}

// TagClassifier picks a tag for a finished video. An empty tag means no
// confident match.
type TagClassifier interface {
	ClassifyTag(ctx context.Context, title string) (string, error)
}

// Executor runs the processing stages for one task.
type Executor interface {
	Execute(ctx context.Context, taskID string) (domain.TaskResult, error)
}

// TaskQueueReader provides blocking read access to queued task ids.
type TaskQueueReader interface {
	// Next blocks until an id is available, the queue is closed, or ctx is done.
	Next(ctx context.Context) (string, error)
}

// TaskQueueWriter provides write access to the task queue.
type TaskQueueWriter interface {
	// Enqueue adds a task id to the queue. It never blocks.
	Enqueue(taskID string) error

	// Close closes the task queue, preventing further task submission
	Close()
}
