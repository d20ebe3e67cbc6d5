package mocks

import (
	"context"
	"sync"
)

// ChatCall records one call to MockChatService.Reply.
type ChatCall struct {
	ProjectID  string
	Message    string
	Transcript string
}

// MockChatService implements api.ChatService for testing.
type MockChatService struct {
	ReplyFn func(ctx context.Context, projectID, message, transcript string) (string, error)

	// Default response values
	DefaultReply string
	Err          error

	mu    sync.Mutex
	Calls []ChatCall
}

// Reply implements api.ChatService.
func (m *MockChatService) Reply(ctx context.Context, projectID, message, transcript string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, ChatCall{ProjectID: projectID, Message: message, Transcript: transcript})
	m.mu.Unlock()

	if m.ReplyFn != nil {
		return m.ReplyFn(ctx, projectID, message, transcript)
	}
	return m.DefaultReply, m.Err
}
