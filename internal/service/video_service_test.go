package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type closerSpy struct {
	closed []string
}

func (c *closerSpy) CloseSession(projectID string) {
	c.closed = append(c.closed, projectID)
}

type videoHarness struct {
	svc        *VideoService
	submitter  *MockSubmitter
	classifier *MockClassifier
	registry   *task.Registry
	projects   *memProjectStore
	tags       *memTagStore
	sessions   *closerSpy
}

func newVideoHarness(t *testing.T, projects ...domain.Project) *videoHarness {
	t.Helper()

	h := &videoHarness{
		submitter:  &MockSubmitter{},
		classifier: &MockClassifier{},
		registry:   task.NewRegistry(),
		projects:   newMemProjectStore(projects...),
		tags:       &memTagStore{tags: []string{"tech", "music"}},
		sessions:   &closerSpy{},
	}

	tc, err := NewTagClassifier(h.classifier, h.tags, discardLogger())
	require.NoError(t, err)

	h.svc, err = NewVideoService(VideoServiceDeps{
		Submitter:  h.submitter,
		Tasks:      h.registry,
		Projects:   h.projects,
		Tags:       h.tags,
		Classifier: tc,
		Sessions:   h.sessions,
	}, discardLogger())
	require.NoError(t, err)
	return h
}

func doneProject(id, title string, createdAt time.Time) domain.Project {
	return domain.Project{
		ID:        id,
		Title:     title,
		VideoURL:  "https://www.youtube.com/watch?v=" + id,
		Status:    domain.TaskStateDone,
		Summary:   "summary of " + title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestNewVideoService_NilDependencies(t *testing.T) {
	t.Parallel()

	tc, err := NewTagClassifier(&MockClassifier{}, &memTagStore{}, discardLogger())
	require.NoError(t, err)

	valid := VideoServiceDeps{
		Submitter:  &MockSubmitter{},
		Tasks:      task.NewRegistry(),
		Projects:   newMemProjectStore(),
		Tags:       &memTagStore{},
		Classifier: tc,
	}

	tests := []struct {
		name   string
		mutate func(d *VideoServiceDeps)
	}{
		{"nil submitter", func(d *VideoServiceDeps) { d.Submitter = nil }},
		{"nil tasks", func(d *VideoServiceDeps) { d.Tasks = nil }},
		{"nil projects", func(d *VideoServiceDeps) { d.Projects = nil }},
		{"nil tags", func(d *VideoServiceDeps) { d.Tags = nil }},
		{"nil classifier", func(d *VideoServiceDeps) { d.Classifier = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := valid
			tt.mutate(&deps)
			svc, err := NewVideoService(deps, discardLogger())
			assert.Nil(t, svc)
			var serr *ServiceError
			assert.ErrorAs(t, err, &serr)
		})
	}

	_, err = NewVideoService(valid, nil)
	assert.Error(t, err)

	svc, err := NewVideoService(valid, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestVideoService_Submit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newVideoHarness(t)

	h.submitter.On("Submit", mock.Anything, "watch https://youtu.be/a").Return("t1", true, nil).Once()
	h.submitter.On("Submit", mock.Anything, "again https://youtu.be/a").Return("t1", false, nil).Once()
	h.submitter.On("Submit", mock.Anything, "no link").Return("", false, domain.ErrNoURLFound).Once()

	res, err := h.svc.Submit(ctx, "watch https://youtu.be/a")
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{TaskID: "t1", Reused: false}, res)

	res, err = h.svc.Submit(ctx, "again https://youtu.be/a")
	require.NoError(t, err)
	assert.True(t, res.Reused)

	_, err = h.svc.Submit(ctx, "no link")
	assert.ErrorIs(t, err, domain.ErrNoURLFound)

	h.submitter.AssertExpectations(t)
}

func TestVideoService_GetStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newVideoHarness(t)

	tk := admitTask(t, h.registry, "https://www.youtube.com/watch?v=abc")

	got, err := h.svc.GetStatus(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateQueued, got.State)

	_, err = h.svc.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestVideoService_ListProjects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := doneProject("old", "Old video", base)
	h := newVideoHarness(t, old)

	// A task whose placeholder is persisted and which has since advanced.
	running := admitTask(t, h.registry, "https://www.bilibili.com/video/BV1")
	placeholder := domain.ProjectFromTask(running, "Bilibili BV1", nil)
	placeholder.Favorite = true
	require.NoError(t, h.projects.Save(ctx, &placeholder))
	_, err := h.registry.Update(running.ID, func(tk *domain.Task) error {
		now := time.Now().UTC()
		if err := tk.Transition(domain.TaskStateTranscribing, now); err != nil {
			return err
		}
		tk.SetProgress(30, now)
		return nil
	})
	require.NoError(t, err)

	// A task with no persisted record at all.
	unsaved := admitTask(t, h.registry, "https://www.youtube.com/watch?v=zzz")

	list, err := h.svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	byID := make(map[string]domain.Project)
	for _, p := range list {
		byID[p.ID] = p
	}

	assert.Equal(t, domain.TaskStateTranscribing, byID[running.ID].Status)
	assert.Equal(t, 30.0, byID[running.ID].Progress)
	assert.True(t, byID[running.ID].Favorite)
	assert.Equal(t, "YouTube zzz", byID[unsaved.ID].Title)
	assert.Equal(t, domain.TaskStateQueued, byID[unsaved.ID].Status)
	assert.Equal(t, domain.TaskStateDone, byID["old"].Status)

	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "list must be newest first")
	}
	assert.Equal(t, "old", list[len(list)-1].ID)
}

func TestVideoService_GetProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stored := doneProject("p1", "Stored", time.Now().UTC())
	h := newVideoHarness(t, stored)

	got, err := h.svc.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Stored", got.Title)

	tk := admitTask(t, h.registry, "https://www.youtube.com/watch?v=live")
	got, err = h.svc.GetProject(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateQueued, got.Status)
	assert.Equal(t, "YouTube live", got.Title)

	_, err = h.svc.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestVideoService_UpdateProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newVideoHarness(t, doneProject("p1", "Original", time.Now().UTC()))

	blank := "   "
	tag := "  tech "
	fav := true
	got, err := h.svc.UpdateProject(ctx, "p1", store.ProjectUpdate{Title: &blank, Tag: &tag, Favorite: &fav})
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
	assert.Equal(t, "tech", got.Tag)
	assert.True(t, got.Favorite)

	title := " Renamed "
	got, err = h.svc.UpdateProject(ctx, "p1", store.ProjectUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	_, err = h.svc.UpdateProject(ctx, "missing", store.ProjectUpdate{Favorite: &fav})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestVideoService_DeleteProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newVideoHarness(t, doneProject("p1", "Stored", time.Now().UTC()))

	require.NoError(t, h.svc.DeleteProject(ctx, "p1"))
	_, ok := h.projects.get("p1")
	assert.False(t, ok)
	assert.Equal(t, []string{"p1"}, h.sessions.closed)

	// Only in memory: deleting still succeeds and removes the task.
	tk := admitTask(t, h.registry, "https://www.youtube.com/watch?v=mem")
	require.NoError(t, h.svc.DeleteProject(ctx, tk.ID))
	_, err := h.registry.Get(tk.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = h.svc.DeleteProject(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestVideoService_Tags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newVideoHarness(t)

	tags, err := h.svc.AddTag(ctx, "  news ")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "music", "news"}, tags)

	_, err = h.svc.AddTag(ctx, "tech")
	assert.ErrorIs(t, err, ErrTagExists)

	_, err = h.svc.AddTag(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyTagName)

	tags, err = h.svc.DeleteTag(ctx, "music")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "news"}, tags)

	_, err = h.svc.DeleteTag(ctx, "music")
	assert.ErrorIs(t, err, ErrTagNotFound)

	tags, err = h.svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "news"}, tags)
}

func TestVideoService_ClassifyAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()

	tagged := doneProject("tagged", "Already tagged", now)
	tagged.Tag = "music"
	queued := doneProject("queued", "Still running", now)
	queued.Status = domain.TaskStateQueued
	placeholder := doneProject("ph", "", now)
	placeholder.Title = "YouTube ph"

	h := newVideoHarness(t,
		doneProject("good", "Go tutorial", now),
		doneProject("bad", "Mystery", now.Add(-time.Minute)),
		tagged, queued, placeholder,
	)

	tags := []string{"tech", "music"}
	h.classifier.On("Classify", mock.Anything, "Go tutorial", tags).Return("tech", nil).Once()
	h.classifier.On("Classify", mock.Anything, "Mystery", tags).Return("", errors.New("model unavailable")).Once()

	res, err := h.svc.ClassifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClassifyResult{Classified: 1, Failed: 1}, res)

	good, _ := h.projects.get("good")
	assert.Equal(t, "tech", good.Tag)
	bad, _ := h.projects.get("bad")
	assert.Empty(t, bad.Tag)

	h.classifier.AssertExpectations(t)
	h.classifier.AssertNotCalled(t, "Classify", mock.Anything, "Already tagged", mock.Anything)
	h.classifier.AssertNotCalled(t, "Classify", mock.Anything, "YouTube ph", mock.Anything)
}

func TestVideoService_ClassifyAllWithoutTags(t *testing.T) {
	t.Parallel()
	h := newVideoHarness(t, doneProject("good", "Go tutorial", time.Now().UTC()))
	h.tags.tags = nil

	_, err := h.svc.ClassifyAll(context.Background())
	assert.ErrorIs(t, err, ErrNoTags)
	h.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)
}
