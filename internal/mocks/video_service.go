package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/service"
	"github.com/phrazzld/vidscribe/internal/store"
)

// MockVideoService implements api.VideoService for testing.
type MockVideoService struct {
	SubmitFn        func(ctx context.Context, rawInput string) (service.SubmitResult, error)
	GetStatusFn     func(ctx context.Context, taskID string) (domain.Task, error)
	ListProjectsFn  func(ctx context.Context) ([]domain.Project, error)
	GetProjectFn    func(ctx context.Context, id string) (*domain.Project, error)
	UpdateProjectFn func(ctx context.Context, id string, u store.ProjectUpdate) (*domain.Project, error)
	DeleteProjectFn func(ctx context.Context, id string) error
	ClassifyAllFn   func(ctx context.Context) (service.ClassifyResult, error)

	// Err is returned by methods without a custom function
	Err error

	mu    sync.Mutex
	calls map[string][]any
}

func (m *MockVideoService) record(method string, arg any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][]any)
	}
	m.calls[method] = append(m.calls[method], arg)
}

// Calls returns the recorded arguments of method, in call order.
func (m *MockVideoService) Calls(method string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.calls[method]...)
}

// Submit implements api.VideoService.
func (m *MockVideoService) Submit(ctx context.Context, rawInput string) (service.SubmitResult, error) {
	m.record("Submit", rawInput)
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, rawInput)
	}
	return service.SubmitResult{}, m.Err
}

// GetStatus implements api.VideoService.
func (m *MockVideoService) GetStatus(ctx context.Context, taskID string) (domain.Task, error) {
	m.record("GetStatus", taskID)
	if m.GetStatusFn != nil {
		return m.GetStatusFn(ctx, taskID)
	}
	return domain.Task{}, m.Err
}

// ListProjects implements api.VideoService.
func (m *MockVideoService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	m.record("ListProjects", nil)
	if m.ListProjectsFn != nil {
		return m.ListProjectsFn(ctx)
	}
	return nil, m.Err
}

// GetProject implements api.VideoService.
func (m *MockVideoService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	m.record("GetProject", id)
	if m.GetProjectFn != nil {
		return m.GetProjectFn(ctx, id)
	}
	return nil, m.Err
}

// UpdateProject implements api.VideoService.
func (m *MockVideoService) UpdateProject(
	ctx context.Context,
	id string,
	u store.ProjectUpdate,
) (*domain.Project, error) {
	m.record("UpdateProject", u)
	if m.UpdateProjectFn != nil {
		return m.UpdateProjectFn(ctx, id, u)
	}
	return nil, m.Err
}

// DeleteProject implements api.VideoService.
func (m *MockVideoService) DeleteProject(ctx context.Context, id string) error {
	m.record("DeleteProject", id)
	if m.DeleteProjectFn != nil {
		return m.DeleteProjectFn(ctx, id)
	}
	return m.Err
}

// ClassifyAll implements api.VideoService.
func (m *MockVideoService) ClassifyAll(ctx context.Context) (service.ClassifyResult, error) {
	m.record("ClassifyAll", nil)
	if m.ClassifyAllFn != nil {
		return m.ClassifyAllFn(ctx)
	}
	return service.ClassifyResult{}, m.Err
}
