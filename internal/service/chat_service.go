package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
)

// ChatModel answers a message about a transcript given earlier turns.
type ChatModel interface {
	Chat(ctx context.Context, transcript string, history []domain.ChatMessage, message string) (string, error)
}

type chatSession struct {
	mu         sync.Mutex
	transcript string
	history    []domain.ChatMessage
}

// ChatService holds follow-up conversations about processed videos. A
// session is keyed by project id and seeded from the record's saved history;
// each reply is written back to the record.
type ChatService struct {
	model    ChatModel
	projects store.ProjectStore
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*chatSession
}

// NewChatService creates a ChatService.
func NewChatService(model ChatModel, projects store.ProjectStore, logger *slog.Logger) (*ChatService, error) {
	if model == nil {
		return nil, nilDependency("chat", "model")
	}
	if projects == nil {
		return nil, nilDependency("chat", "projects")
	}
	if logger == nil {
		return nil, nilDependency("chat", "logger")
	}

	return &ChatService{
		model:    model,
		projects: projects,
		logger:   logger.With("component", "chat_service"),
		sessions: make(map[string]*chatSession),
	}, nil
}

// Reply sends message in the session for projectID and returns the answer.
// transcript is used when the project has no saved transcript.
func (s *ChatService) Reply(ctx context.Context, projectID, message, transcript string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}
	if strings.TrimSpace(projectID) == "" {
		return "", domain.ErrProjectNotFound
	}

	session, err := s.session(ctx, projectID, transcript)
	if err != nil {
		return "", NewServiceError("chat", "reply", "failed to open chat session", err)
	}

	// Turns within one session are serialized so history stays ordered.
	session.mu.Lock()
	defer session.mu.Unlock()

	history := append([]domain.ChatMessage(nil), session.history...)
	reply, err := s.model.Chat(ctx, session.transcript, history, message)
	if err != nil {
		s.logger.Warn("chat reply failed", "project_id", projectID, "error", err)
		if errors.Is(err, domain.ErrEmptyMessage) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrChatFailed, err)
	}

	session.history = append(session.history,
		domain.ChatMessage{Role: domain.ChatRoleUser, Content: message},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: reply},
	)

	// The reply is returned even when saving fails; the next turn writes the
	// full history again.
	err = s.projects.SaveChatHistory(ctx, projectID, session.history)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("chat history not saved, project has no record", "project_id", projectID)
	case err != nil:
		s.logger.Warn("failed to save chat history", "project_id", projectID, "error", err)
	}

	return reply, nil
}

// CloseSession drops the cached session for projectID.
func (s *ChatService) CloseSession(projectID string) {
	s.mu.Lock()
	delete(s.sessions, projectID)
	s.mu.Unlock()
}

func (s *ChatService) session(ctx context.Context, projectID, transcript string) (*chatSession, error) {
	s.mu.Lock()
	if cs, ok := s.sessions[projectID]; ok {
		s.mu.Unlock()
		return cs, nil
	}
	s.mu.Unlock()

	cs := &chatSession{transcript: transcript}
	p, err := s.projects.Get(ctx, projectID)
	switch {
	case err == nil:
		cs.history = append([]domain.ChatMessage(nil), p.ChatHistory...)
		if p.Transcript != "" {
			cs.transcript = p.Transcript
		}
	case errors.Is(err, store.ErrNotFound):
		if strings.TrimSpace(transcript) == "" {
			return nil, domain.ErrProjectNotFound
		}
	default:
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[projectID]; ok {
		return existing, nil
	}
	s.sessions[projectID] = cs
	return cs, nil
}

var _ SessionCloser = (*ChatService)(nil)
