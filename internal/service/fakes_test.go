package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memProjectStore is an in-memory store.ProjectStore.
type memProjectStore struct {
	mu       sync.Mutex
	projects map[string]domain.Project
	saveErr  error
	chatErr  error
	afterGet func()
}

func newMemProjectStore(projects ...domain.Project) *memProjectStore {
	s := &memProjectStore{projects: make(map[string]domain.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memProjectStore) LoadAll(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memProjectStore) Get(_ context.Context, id string) (*domain.Project, error) {
	s.mu.Lock()
	p, ok := s.projects[id]
	hook := s.afterGet
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	return &p, nil
}

func (s *memProjectStore) Save(_ context.Context, p *domain.Project) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *p
	if prev, ok := s.projects[p.ID]; ok {
		rec.Favorite = prev.Favorite
		rec.ChatHistory = prev.ChatHistory
	}
	s.projects[p.ID] = rec
	return nil
}

func (s *memProjectStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return store.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *memProjectStore) UpdateAttributes(_ context.Context, id string, u store.ProjectUpdate) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Tag != nil {
		p.Tag = *u.Tag
	}
	if u.Favorite != nil {
		p.Favorite = *u.Favorite
	}
	s.projects[id] = p
	return &p, nil
}

func (s *memProjectStore) SaveChatHistory(_ context.Context, id string, history []domain.ChatMessage) error {
	if s.chatErr != nil {
		return s.chatErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return store.ErrProjectNotFound
	}
	p.ChatHistory = append([]domain.ChatMessage(nil), history...)
	s.projects[id] = p
	return nil
}

func (s *memProjectStore) get(id string) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	return p, ok
}

// memTagStore is an in-memory store.TagStore.
type memTagStore struct {
	mu   sync.Mutex
	tags []string
}

func (s *memTagStore) ListTags(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.tags...), nil
}

func (s *memTagStore) AddTag(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t == name {
			return store.ErrTagExists
		}
	}
	s.tags = append(s.tags, name)
	return nil
}

func (s *memTagStore) DeleteTag(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tags {
		if t == name {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return nil
		}
	}
	return store.ErrTagNotFound
}

func (s *memTagStore) SeedTags(_ context.Context, defaults []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tags) == 0 {
		s.tags = append(s.tags, defaults...)
	}
	return nil
}

// MockClassifier is a mock implementation of Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, title string, tags []string) (string, error) {
	args := m.Called(ctx, title, tags)
	return args.String(0), args.Error(1)
}

// MockChatModel is a mock implementation of ChatModel.
type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Chat(
	ctx context.Context,
	transcript string,
	history []domain.ChatMessage,
	message string,
) (string, error) {
	args := m.Called(ctx, transcript, history, message)
	return args.String(0), args.Error(1)
}

// MockSubmitter is a mock implementation of Submitter.
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, rawInput string) (string, bool, error) {
	args := m.Called(ctx, rawInput)
	return args.String(0), args.Bool(1), args.Error(2)
}

var (
	_ store.ProjectStore = (*memProjectStore)(nil)
	_ store.TagStore     = (*memTagStore)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// admitTask registers a queued task for url in registry.
func admitTask(t *testing.T, registry *task.Registry, url string) domain.Task {
	t.Helper()
	tk, isNew, err := registry.Admit(url, func() (*domain.Task, error) {
		return domain.NewTask(url, url)
	})
	require.NoError(t, err)
	require.True(t, isNew)
	return tk
}
