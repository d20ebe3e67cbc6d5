package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewChatService_NilDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewChatService(nil, newMemProjectStore(), discardLogger())
	assert.Error(t, err)
	_, err = NewChatService(&MockChatModel{}, nil, discardLogger())
	assert.Error(t, err)
	_, err = NewChatService(&MockChatModel{}, newMemProjectStore(), nil)
	assert.Error(t, err)
}

func TestChatService_ReplySeedsAndPersistsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := doneProject("p1", "Talk", time.Now().UTC())
	p.Transcript = "[00:00] hello"
	earlier := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "first?"},
		{Role: domain.ChatRoleAssistant, Content: "first."},
	}
	p.ChatHistory = earlier
	projects := newMemProjectStore(p)

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, "[00:00] hello", earlier, "second?").Return("second.", nil).Once()

	svc, err := NewChatService(model, projects, discardLogger())
	require.NoError(t, err)

	// The saved transcript wins over the one sent by the client.
	reply, err := svc.Reply(ctx, "p1", "  second? ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "second.", reply)

	saved, _ := projects.get("p1")
	require.Len(t, saved.ChatHistory, 4)
	assert.Equal(t, domain.ChatMessage{Role: domain.ChatRoleUser, Content: "second?"}, saved.ChatHistory[2])
	assert.Equal(t, domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: "second."}, saved.ChatHistory[3])

	model.AssertExpectations(t)
}

func TestChatService_SessionIsCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := doneProject("p1", "Talk", time.Now().UTC())
	p.Transcript = "t"
	projects := newMemProjectStore(p)

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, "t", mock.Anything, "one").Return("1", nil).Once()
	model.On("Chat", mock.Anything, "t", mock.MatchedBy(func(h []domain.ChatMessage) bool {
		return len(h) == 2 && h[1].Content == "1"
	}), "two").Return("2", nil).Once()

	svc, err := NewChatService(model, projects, discardLogger())
	require.NoError(t, err)

	_, err = svc.Reply(ctx, "p1", "one", "")
	require.NoError(t, err)

	// A history change in the store is not picked up by a live session.
	require.NoError(t, projects.SaveChatHistory(ctx, "p1", nil))

	reply, err := svc.Reply(ctx, "p1", "two", "")
	require.NoError(t, err)
	assert.Equal(t, "2", reply)
	model.AssertExpectations(t)
}

func TestChatService_CloseSessionReloadsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := doneProject("p1", "Talk", time.Now().UTC())
	p.Transcript = "t"
	projects := newMemProjectStore(p)

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, "t", mock.Anything, mock.Anything).Return("ok", nil)

	svc, err := NewChatService(model, projects, discardLogger())
	require.NoError(t, err)

	_, err = svc.Reply(ctx, "p1", "one", "")
	require.NoError(t, err)

	svc.CloseSession("p1")
	require.NoError(t, projects.SaveChatHistory(ctx, "p1", nil))

	_, err = svc.Reply(ctx, "p1", "two", "")
	require.NoError(t, err)

	saved, _ := projects.get("p1")
	assert.Len(t, saved.ChatHistory, 2)
}

func TestChatService_UnsavedProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, "client transcript", mock.Anything, "hi").Return("hello", nil).Once()

	svc, err := NewChatService(model, newMemProjectStore(), discardLogger())
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, "tmp", "hi", "client transcript")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)

	_, err = svc.Reply(ctx, "other", "hi", "")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = svc.Reply(ctx, "", "hi", "t")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestChatService_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := doneProject("p1", "Talk", time.Now().UTC())
	projects := newMemProjectStore(p)

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, mock.Anything, mock.Anything, "boom").
		Return("", errors.New("upstream unavailable")).Once()

	svc, err := NewChatService(model, projects, discardLogger())
	require.NoError(t, err)

	_, err = svc.Reply(ctx, "p1", "   ", "")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.Reply(ctx, "p1", "boom", "")
	assert.ErrorIs(t, err, domain.ErrChatFailed)

	saved, _ := projects.get("p1")
	assert.Empty(t, saved.ChatHistory, "a failed turn must not be recorded")
	model.AssertExpectations(t)
}

func TestChatService_SaveFailureStillReplies(t *testing.T) {
	t.Parallel()

	projects := newMemProjectStore(doneProject("p1", "Talk", time.Now().UTC()))
	projects.chatErr = errors.New("disk full")

	model := &MockChatModel{}
	model.On("Chat", mock.Anything, mock.Anything, mock.Anything, "q").Return("a", nil).Once()

	svc, err := NewChatService(model, projects, discardLogger())
	require.NoError(t, err)

	reply, err := svc.Reply(context.Background(), "p1", "q", "")
	require.NoError(t, err)
	assert.Equal(t, "a", reply)
}
