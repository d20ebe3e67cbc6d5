// Package storetest holds behaviour tests shared by every store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns fresh, empty stores for one test.
type Factory func(t *testing.T) (store.ProjectStore, store.TagStore)

// NewProject returns a finished project with every field populated.
func NewProject(title string, createdAt time.Time) domain.Project {
	return domain.Project{
		ID:                uuid.NewString(),
		Title:             title,
		VideoURL:          "https://www.youtube.com/watch?v=" + title,
		Author:            "Author",
		UploadDate:        "2024-01-31",
		ThumbnailURL:      "https://img.example/thumb.jpg",
		AuthorAvatarURL:   "https://img.example/avatar.jpg",
		AuthorHomepageURL: "https://www.youtube.com/@author",
		SubtitleSource:    domain.SubtitleSourceOfficial,
		Transcript:        "[00:00] hello",
		Segments:          []domain.Segment{{Start: 0, End: 1.5, Text: "hello"}},
		Summary:           "# Summary",
		Tag:               "Tech",
		Status:            domain.TaskStateDone,
		Message:           "Done",
		ChatHistory:       []domain.ChatMessage{},
		CreatedAt:         createdAt.UTC(),
		UpdatedAt:         createdAt.UTC(),
	}
}

// Run exercises a ProjectStore and TagStore pair.
func Run(t *testing.T, factory Factory) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, factory) })
	t.Run("SaveReplaces", func(t *testing.T) { testSaveReplaces(t, factory) })
	t.Run("SaveKeepsUserFields", func(t *testing.T) { testSaveKeepsUserFields(t, factory) })
	t.Run("LoadAllNewestFirst", func(t *testing.T) { testLoadAll(t, factory) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
	t.Run("UpdateAttributes", func(t *testing.T) { testUpdateAttributes(t, factory) })
	t.Run("SaveChatHistory", func(t *testing.T) { testSaveChatHistory(t, factory) })
	t.Run("InvalidProject", func(t *testing.T) { testInvalidProject(t, factory) })
	t.Run("Tags", func(t *testing.T) { testTags(t, factory) })
	t.Run("SeedTags", func(t *testing.T) { testSeedTags(t, factory) })
}

func testSaveAndGet(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("saved", time.Now().Truncate(time.Millisecond))
	require.NoError(t, projects.Save(ctx, &p))

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.VideoURL, got.VideoURL)
	assert.Equal(t, p.AuthorHomepageURL, got.AuthorHomepageURL)
	assert.Equal(t, p.SubtitleSource, got.SubtitleSource)
	assert.Equal(t, p.Segments, got.Segments)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.Tag, got.Tag)
	assert.Empty(t, got.ChatHistory)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", p.CreatedAt, got.CreatedAt)

	_, err = projects.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func testSaveReplaces(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("placeholder", time.Now())
	p.Status = domain.TaskStateQueued
	p.Summary = ""
	require.NoError(t, projects.Save(ctx, &p))

	p.Title = "Real title"
	p.Status = domain.TaskStateFailed
	p.Error = "summarization failed"
	p.Progress = 42
	require.NoError(t, projects.Save(ctx, &p))

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Real title", got.Title)
	assert.Equal(t, domain.TaskStateFailed, got.Status)
	assert.Equal(t, "summarization failed", got.Error)
	assert.Equal(t, 42.0, got.Progress)

	all, err := projects.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testSaveKeepsUserFields(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("placeholder", time.Now())
	p.Status = domain.TaskStateQueued
	require.NoError(t, projects.Save(ctx, &p))

	fav := true
	_, err := projects.UpdateAttributes(ctx, p.ID, store.ProjectUpdate{Favorite: &fav})
	require.NoError(t, err)
	history := []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "q"}}
	require.NoError(t, projects.SaveChatHistory(ctx, p.ID, history))

	// A stale copy without the user's changes.
	p.Status = domain.TaskStateDone
	p.Favorite = false
	p.ChatHistory = nil
	require.NoError(t, projects.Save(ctx, &p))

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateDone, got.Status)
	assert.True(t, got.Favorite)
	assert.Equal(t, history, got.ChatHistory)
}

func testLoadAll(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	all, err := projects.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	base := time.Now().Add(-time.Hour)
	for _, seed := range []struct {
		title  string
		offset time.Duration
	}{
		{"old", 0},
		{"newest", 2 * time.Minute},
		{"middle", time.Minute},
	} {
		p := NewProject(seed.title, base.Add(seed.offset))
		require.NoError(t, projects.Save(ctx, &p))
	}

	all, err = projects.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{all[0].Title, all[1].Title, all[2].Title})
}

func testDelete(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("doomed", time.Now())
	require.NoError(t, projects.Save(ctx, &p))

	require.NoError(t, projects.Delete(ctx, p.ID))
	_, err := projects.Get(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)

	assert.ErrorIs(t, projects.Delete(ctx, p.ID), store.ErrProjectNotFound)
}

func testUpdateAttributes(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("before", time.Now())
	require.NoError(t, projects.Save(ctx, &p))

	fav := true
	got, err := projects.UpdateAttributes(ctx, p.ID, store.ProjectUpdate{Favorite: &fav})
	require.NoError(t, err)
	assert.True(t, got.Favorite)
	assert.Equal(t, "before", got.Title)
	assert.Equal(t, "Tech", got.Tag)

	title, tag := "after", ""
	got, err = projects.UpdateAttributes(ctx, p.ID, store.ProjectUpdate{Title: &title, Tag: &tag})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "", got.Tag)
	assert.True(t, got.Favorite)

	got, err = projects.UpdateAttributes(ctx, p.ID, store.ProjectUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	_, err = projects.UpdateAttributes(ctx, "missing", store.ProjectUpdate{Favorite: &fav})
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func testSaveChatHistory(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	p := NewProject("chatty", time.Now())
	require.NoError(t, projects.Save(ctx, &p))

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "What is it about?"},
		{Role: domain.ChatRoleAssistant, Content: "Cats."},
	}
	require.NoError(t, projects.SaveChatHistory(ctx, p.ID, history))

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, history, got.ChatHistory)

	assert.ErrorIs(t, projects.SaveChatHistory(ctx, "missing", history), store.ErrProjectNotFound)
}

func testInvalidProject(t *testing.T, factory Factory) {
	projects, _ := factory(t)
	ctx := context.Background()

	assert.ErrorIs(t, projects.Save(ctx, nil), store.ErrInvalidEntity)

	p := NewProject("bad", time.Now())
	p.ID = ""
	assert.ErrorIs(t, projects.Save(ctx, &p), store.ErrInvalidEntity)

	p = NewProject("bad status", time.Now())
	p.Status = "exploded"
	assert.ErrorIs(t, projects.Save(ctx, &p), store.ErrInvalidEntity)
}

func testTags(t *testing.T, factory Factory) {
	_, tags := factory(t)
	ctx := context.Background()

	list, err := tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, tags.AddTag(ctx, "Tech"))
	require.NoError(t, tags.AddTag(ctx, " News "))
	require.NoError(t, tags.AddTag(ctx, "Art"))

	assert.ErrorIs(t, tags.AddTag(ctx, "Tech"), store.ErrTagExists)
	assert.ErrorIs(t, tags.AddTag(ctx, "  "), store.ErrInvalidEntity)

	list, err = tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech", "News", "Art"}, list)

	require.NoError(t, tags.DeleteTag(ctx, "News"))
	assert.ErrorIs(t, tags.DeleteTag(ctx, "News"), store.ErrTagNotFound)

	require.NoError(t, tags.AddTag(ctx, "Life"))
	list, err = tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech", "Art", "Life"}, list)
}

func testSeedTags(t *testing.T, factory Factory) {
	_, tags := factory(t)
	ctx := context.Background()

	require.NoError(t, tags.SeedTags(ctx, []string{"Tech", "", "News", "Tech"}))
	list, err := tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech", "News"}, list)

	require.NoError(t, tags.SeedTags(ctx, []string{"Other"}))
	list, err = tags.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech", "News"}, list)
}
