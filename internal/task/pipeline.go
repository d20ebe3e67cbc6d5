package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
)

// PipelineDeps are the collaborators a Pipeline drives. Classifier is
// optional; every other field is required.
type PipelineDeps struct {
	Metadata    MetadataExtractor
	Subtitles   SubtitleFetcher
	Transcriber Transcriber
	Summarizer  Summarizer
	Classifier  TagClassifier
}

// Pipeline runs the processing stages of a video task in order:
// metadata, subtitles, transcription when no subtitles exist, summary and
// finally a best-effort tag. Every stage transition is written to the
// registry before the stage starts.
type Pipeline struct {
	deps     PipelineDeps
	registry *Registry
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over the given collaborators.
func NewPipeline(
	deps PipelineDeps,
	registry *Registry,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Pipeline, error) {
	if deps.Metadata == nil || deps.Subtitles == nil || deps.Transcriber == nil ||
		deps.Summarizer == nil {
		return nil, ErrNilCollaborator
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Pipeline{
		deps:     deps,
		registry: registry,
		emitter:  emitter,
		logger:   logger.With("component", "video_pipeline"),
	}, nil
}

// Execute runs every stage for the task and returns its result. The task is
// left in the summarizing state; completing or failing it is up to the
// caller. domain.ErrTaskNotFound means the task was deleted mid-run.
func (p *Pipeline) Execute(ctx context.Context, taskID string) (domain.TaskResult, error) {
	logger := p.logger.With("task_id", taskID)

	t, err := p.advance(ctx, taskID, domain.TaskStateExtractingMetadata, "Fetching video information")
	if err != nil {
		return domain.TaskResult{}, err
	}
	videoURL := t.NormalizedURL

	// 1. Metadata
	metadata, err := p.deps.Metadata.ExtractMetadata(ctx, videoURL)
	if err != nil {
		logger.Error("failed to extract metadata", "error", err)
		return domain.TaskResult{}, stageError(domain.ErrMetadataUnavailable, err)
	}
	logger.Info("extracted metadata", "title", metadata.Title, "author", metadata.Author)

	// 2. Subtitles, with transcription as the fallback
	if _, err := p.advance(ctx, taskID, domain.TaskStateExtractingSubtitles, "Looking for subtitles"); err != nil {
		return domain.TaskResult{}, err
	}

	transcript, err := p.deps.Subtitles.FetchSubtitles(ctx, videoURL)
	switch {
	case err == nil && !transcript.IsEmpty():
		logger.Info("using subtitles",
			"source", transcript.Source,
			"language", transcript.Language,
			"segments", len(transcript.Segments))
	case ctx.Err() != nil:
		return domain.TaskResult{}, ctx.Err()
	default:
		if err != nil && !errors.Is(err, domain.ErrSubtitlesUnavailable) {
			logger.Warn("subtitle lookup failed, falling back to transcription", "error", err)
		} else {
			logger.Info("no subtitles available, falling back to transcription")
		}

		transcript, err = p.transcribe(ctx, taskID, videoURL)
		if err != nil {
			logger.Error("transcription failed", "error", err)
			return domain.TaskResult{}, err
		}
	}

	// 3. Summary
	if _, err := p.advance(ctx, taskID, domain.TaskStateSummarizing, "Generating summary"); err != nil {
		return domain.TaskResult{}, err
	}

	summary, err := p.deps.Summarizer.Summarize(ctx, transcript.Timestamped(), metadata)
	if err != nil {
		logger.Error("failed to summarize transcript", "error", err)
		return domain.TaskResult{}, stageError(domain.ErrSummarizationFailed, err)
	}
	if strings.TrimSpace(summary) == "" {
		return domain.TaskResult{}, fmt.Errorf("%w: empty summary", domain.ErrSummarizationFailed)
	}

	result := domain.TaskResult{
		Metadata:   metadata,
		Transcript: transcript,
		Summary:    summary,
	}

	// 4. Tag, best effort
	result.Tag = p.classify(ctx, taskID, metadata.Title, logger)

	return result, nil
}

func (p *Pipeline) transcribe(ctx context.Context, taskID, videoURL string) (domain.Transcript, error) {
	if _, err := p.advance(ctx, taskID, domain.TaskStateTranscribing, "Transcribing audio"); err != nil {
		return domain.Transcript{}, err
	}

	onProgress := func(percent float64) {
		_, err := p.registry.Update(taskID, func(t *domain.Task) error {
			t.SetProgress(percent, time.Now().UTC())
			t.Message = fmt.Sprintf("Transcribing audio (%.0f%%)", percent)
			return nil
		})
		if err != nil {
			p.logger.Debug("dropping progress update", "task_id", taskID, "error", err)
		}
	}

	transcript, err := p.deps.Transcriber.Transcribe(ctx, videoURL, onProgress)
	if err != nil {
		return domain.Transcript{}, stageError(domain.ErrTranscriptionFailed, err)
	}
	if transcript.IsEmpty() {
		return domain.Transcript{}, fmt.Errorf("%w: transcript is empty", domain.ErrTranscriptionFailed)
	}
	if transcript.Source == "" {
		transcript.Source = domain.SubtitleSourceWhisper
	}
	return transcript, nil
}

func (p *Pipeline) classify(ctx context.Context, taskID, title string, logger *slog.Logger) string {
	if p.deps.Classifier == nil || strings.TrimSpace(title) == "" {
		return ""
	}

	_, _ = p.registry.Update(taskID, func(t *domain.Task) error {
		t.Message = "Classifying"
		t.UpdatedAt = time.Now().UTC()
		return nil
	})

	tag, err := p.deps.Classifier.ClassifyTag(ctx, title)
	if err != nil {
		logger.Warn("tag classification failed, continuing without tag", "error", err)
		return ""
	}
	if tag != "" {
		logger.Info("classified video", "tag", tag)
	}
	return tag
}

// advance moves the task to the next stage and announces the change.
func (p *Pipeline) advance(
	ctx context.Context,
	taskID string,
	state domain.TaskState,
	message string,
) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	t, err := p.registry.Update(taskID, func(t *domain.Task) error {
		if err := t.Transition(state, time.Now().UTC()); err != nil {
			return err
		}
		t.Message = message
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}

	p.logger.Debug("task advanced", "task_id", taskID, "state", state)
	if err := p.emitter.EmitEvent(ctx, events.NewTaskEvent(events.TaskStateChanged, t)); err != nil {
		p.logger.Warn("failed to emit state change", "task_id", taskID, "error", err)
	}
	return t, nil
}

// stageError tags err with the stage sentinel unless it already carries it.
func stageError(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

var _ Executor = (*Pipeline)(nil)
