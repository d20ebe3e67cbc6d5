package task

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	registry    *Registry
	emitter     *recordingEmitter
	metadata    *fakeMetadata
	subtitles   *fakeSubtitles
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	classifier  *fakeClassifier
	pipeline    *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		registry: NewRegistry(),
		emitter:  &recordingEmitter{},
		metadata: &fakeMetadata{meta: domain.Metadata{Title: "A talk", Author: "Speaker"}},
		subtitles: &fakeSubtitles{transcript: domain.Transcript{
			Source:   domain.SubtitleSourceOfficial,
			Language: "en",
			Segments: []domain.Segment{{Start: 0, End: 2, Text: "hello"}},
		}},
		transcriber: &fakeTranscriber{transcript: domain.Transcript{
			Segments: []domain.Segment{{Start: 0, End: 3, Text: "spoken"}},
		}},
		summarizer: &fakeSummarizer{summary: "# Summary"},
		classifier: &fakeClassifier{tag: "tech"},
	}

	p, err := NewPipeline(PipelineDeps{
		Metadata:    f.metadata,
		Subtitles:   f.subtitles,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
		Classifier:  f.classifier,
	}, f.registry, f.emitter, discardLogger())
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func (f *pipelineFixture) admit(t *testing.T) string {
	t.Helper()
	task, _, err := f.registry.Admit("https://example.com/v", func() (*domain.Task, error) {
		return domain.NewTask("raw", "https://example.com/v")
	})
	require.NoError(t, err)
	return task.ID
}

func TestNewPipeline_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{}, NewRegistry(), &recordingEmitter{}, discardLogger())
	assert.ErrorIs(t, err, ErrNilCollaborator)

	deps := PipelineDeps{
		Metadata:    &fakeMetadata{},
		Subtitles:   &fakeSubtitles{},
		Transcriber: &fakeTranscriber{},
		Summarizer:  &fakeSummarizer{},
	}
	_, err = NewPipeline(deps, nil, &recordingEmitter{}, discardLogger())
	assert.ErrorIs(t, err, ErrNilRegistry)
	_, err = NewPipeline(deps, NewRegistry(), nil, discardLogger())
	assert.ErrorIs(t, err, ErrNilEmitter)
	_, err = NewPipeline(deps, NewRegistry(), &recordingEmitter{}, nil)
	assert.ErrorIs(t, err, ErrNilLogger)

	_, err = NewPipeline(deps, NewRegistry(), &recordingEmitter{}, discardLogger())
	assert.NoError(t, err, "classifier is optional")
}

func TestPipelineExecute_WithSubtitles(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	id := f.admit(t)

	result, err := f.pipeline.Execute(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "A talk", result.Metadata.Title)
	assert.Equal(t, domain.SubtitleSourceOfficial, result.Transcript.Source)
	assert.Equal(t, "# Summary", result.Summary)
	assert.Equal(t, "tech", result.Tag)
	assert.Equal(t, "[00:00] hello", f.summarizer.gotInput)
	assert.False(t, f.transcriber.called)

	assert.Equal(t, []domain.TaskState{
		domain.TaskStateExtractingMetadata,
		domain.TaskStateExtractingSubtitles,
		domain.TaskStateSummarizing,
	}, f.emitter.states(id))

	stored, _ := f.registry.Get(id)
	assert.Equal(t, domain.TaskStateSummarizing, stored.State)
}

func TestPipelineExecute_FallsBackToTranscription(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.subtitles.transcript = domain.Transcript{}
	f.subtitles.err = domain.ErrSubtitlesUnavailable
	f.transcriber.progress = []float64{10, 55.5}
	id := f.admit(t)

	result, err := f.pipeline.Execute(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, f.transcriber.called)
	assert.Equal(t, domain.SubtitleSourceWhisper, result.Transcript.Source)
	assert.Equal(t, "[00:00] spoken", f.summarizer.gotInput)
	assert.Equal(t, []domain.TaskState{
		domain.TaskStateExtractingMetadata,
		domain.TaskStateExtractingSubtitles,
		domain.TaskStateTranscribing,
		domain.TaskStateSummarizing,
	}, f.emitter.states(id))

	stored, _ := f.registry.Get(id)
	assert.Nil(t, stored.Progress, "progress is cleared once transcription ends")
}

func TestPipelineExecute_EmptySubtitlesFallBack(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.subtitles.transcript = domain.Transcript{Segments: []domain.Segment{{Text: " "}}}
	id := f.admit(t)

	_, err := f.pipeline.Execute(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, f.transcriber.called)
}

func TestPipelineExecute_StageFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name    string
		mutate  func(f *pipelineFixture)
		wantErr error
	}{
		{
			name:    "metadata",
			mutate:  func(f *pipelineFixture) { f.metadata.err = boom },
			wantErr: domain.ErrMetadataUnavailable,
		},
		{
			name: "transcription",
			mutate: func(f *pipelineFixture) {
				f.subtitles.err = domain.ErrSubtitlesUnavailable
				f.transcriber.err = boom
			},
			wantErr: domain.ErrTranscriptionFailed,
		},
		{
			name: "empty transcription",
			mutate: func(f *pipelineFixture) {
				f.subtitles.err = domain.ErrSubtitlesUnavailable
				f.transcriber.transcript = domain.Transcript{}
			},
			wantErr: domain.ErrTranscriptionFailed,
		},
		{
			name:    "summary",
			mutate:  func(f *pipelineFixture) { f.summarizer.err = boom },
			wantErr: domain.ErrSummarizationFailed,
		},
		{
			name:    "empty summary",
			mutate:  func(f *pipelineFixture) { f.summarizer.summary = "  " },
			wantErr: domain.ErrSummarizationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newPipelineFixture(t)
			tt.mutate(f)
			id := f.admit(t)

			_, err := f.pipeline.Execute(context.Background(), id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPipelineExecute_ClassificationIsBestEffort(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	f.classifier.err = errors.New("model unavailable")
	id := f.admit(t)

	result, err := f.pipeline.Execute(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, result.Tag)
	assert.Equal(t, "# Summary", result.Summary)
}

func TestPipelineExecute_TaskDeletedMidRun(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	id := f.admit(t)

	f.registry.Delete(id)
	_, err := f.pipeline.Execute(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestPipelineExecute_EmitsStateChangedEvents(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)
	id := f.admit(t)

	_, err := f.pipeline.Execute(context.Background(), id)
	require.NoError(t, err)

	for _, typ := range f.emitter.types(id) {
		assert.Equal(t, events.TaskStateChanged, typ)
	}
}
