package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T, projects *memProjectStore) (*ProjectRecorder, *task.Registry) {
	t.Helper()
	registry := task.NewRegistry()
	r, err := NewProjectRecorder(projects, registry, discardLogger())
	require.NoError(t, err)
	return r, registry
}

func TestNewProjectRecorder_NilDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewProjectRecorder(nil, task.NewRegistry(), discardLogger())
	assert.Error(t, err)
	_, err = NewProjectRecorder(newMemProjectStore(), nil, discardLogger())
	assert.Error(t, err)
	_, err = NewProjectRecorder(newMemProjectStore(), task.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestProjectRecorder_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	projects := newMemProjectStore()
	r, registry := newRecorder(t, projects)

	tk := admitTask(t, registry, "https://www.bilibili.com/video/BV1xx411c7mD")

	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskQueued, tk)))
	placeholder, ok := projects.get(tk.ID)
	require.True(t, ok)
	assert.Equal(t, "Bilibili BV1xx411c7mD", placeholder.Title)
	assert.Equal(t, domain.TaskStateQueued, placeholder.Status)

	// The user favorites the project while it is processing.
	fav := true
	_, err := projects.UpdateAttributes(ctx, tk.ID, store.ProjectUpdate{Favorite: &fav})
	require.NoError(t, err)

	// Intermediate changes are not written.
	running, err := registry.Update(tk.ID, func(t *domain.Task) error {
		return t.Transition(domain.TaskStateSummarizing, time.Now().UTC())
	})
	require.NoError(t, err)
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskStateChanged, running)))
	stored, _ := projects.get(tk.ID)
	assert.Equal(t, domain.TaskStateQueued, stored.Status)

	done, err := registry.Update(tk.ID, func(t *domain.Task) error {
		return t.Complete(domain.TaskResult{
			Metadata:   domain.Metadata{Title: "Real title", Author: "Uploader"},
			Transcript: domain.Transcript{Source: domain.SubtitleSourceWhisper, Segments: []domain.Segment{{Text: "hi"}}},
			Summary:    "# Summary",
			Tag:        "tech",
		}, time.Now().UTC())
	})
	require.NoError(t, err)
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskCompleted, done)))

	final, _ := projects.get(tk.ID)
	assert.Equal(t, domain.TaskStateDone, final.Status)
	assert.Equal(t, "Real title", final.Title)
	assert.Equal(t, "# Summary", final.Summary)
	assert.Equal(t, "tech", final.Tag)
	assert.True(t, final.Favorite)
}

func TestProjectRecorder_KeepsUserChangesMadeDuringSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	projects := newMemProjectStore()
	r, registry := newRecorder(t, projects)

	tk := admitTask(t, registry, "https://www.youtube.com/watch?v=race")
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskQueued, tk)))

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "q"},
		{Role: domain.ChatRoleAssistant, Content: "a"},
	}
	// A PATCH and a chat turn land after the recorder read the record.
	projects.afterGet = func() {
		fav := true
		_, err := projects.UpdateAttributes(ctx, tk.ID, store.ProjectUpdate{Favorite: &fav})
		require.NoError(t, err)
		require.NoError(t, projects.SaveChatHistory(ctx, tk.ID, history))
	}

	failed, err := registry.Update(tk.ID, func(t *domain.Task) error {
		return t.Fail("summarization failed", time.Now().UTC())
	})
	require.NoError(t, err)
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskFailed, failed)))

	final, ok := projects.get(tk.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TaskStateFailed, final.Status)
	assert.True(t, final.Favorite)
	assert.Equal(t, history, final.ChatHistory)
}

func TestProjectRecorder_FailedKeepsPlaceholderTitle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	projects := newMemProjectStore()
	r, registry := newRecorder(t, projects)

	tk := admitTask(t, registry, "https://www.youtube.com/watch?v=abc")
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskQueued, tk)))

	failed, err := registry.Update(tk.ID, func(t *domain.Task) error {
		return t.Fail("transcription failed", time.Now().UTC())
	})
	require.NoError(t, err)
	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskFailed, failed)))

	final, _ := projects.get(tk.ID)
	assert.Equal(t, domain.TaskStateFailed, final.Status)
	assert.Equal(t, "YouTube abc", final.Title)
	assert.Equal(t, "transcription failed", final.Error)
}

func TestProjectRecorder_SkipsDeletedTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	projects := newMemProjectStore()
	r, registry := newRecorder(t, projects)

	tk := admitTask(t, registry, "https://www.youtube.com/watch?v=gone")
	registry.Delete(tk.ID)

	require.NoError(t, r.HandleEvent(ctx, events.NewTaskEvent(events.TaskFailed, tk)))
	_, ok := projects.get(tk.ID)
	assert.False(t, ok)
}

func TestProjectRecorder_SaveError(t *testing.T) {
	t.Parallel()

	projects := newMemProjectStore()
	projects.saveErr = errors.New("database is locked")
	r, registry := newRecorder(t, projects)

	tk := admitTask(t, registry, "https://www.youtube.com/watch?v=abc")
	err := r.HandleEvent(context.Background(), events.NewTaskEvent(events.TaskQueued, tk))
	assert.ErrorContains(t, err, "database is locked")
}
