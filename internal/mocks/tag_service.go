package mocks

import (
	"context"
	"sync"
)

// MockTagService implements api.TagService over an in-memory list.
type MockTagService struct {
	ListTagsFn  func(ctx context.Context) ([]string, error)
	AddTagFn    func(ctx context.Context, name string) ([]string, error)
	DeleteTagFn func(ctx context.Context, name string) ([]string, error)

	// Tags is the list returned when no custom function is set
	Tags []string
	Err  error

	mu sync.Mutex
}

// ListTags implements api.TagService.
func (m *MockTagService) ListTags(ctx context.Context) ([]string, error) {
	if m.ListTagsFn != nil {
		return m.ListTagsFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Tags...), m.Err
}

// AddTag implements api.TagService.
func (m *MockTagService) AddTag(ctx context.Context, name string) ([]string, error) {
	if m.AddTagFn != nil {
		return m.AddTagFn(ctx, name)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tags = append(m.Tags, name)
	return append([]string(nil), m.Tags...), nil
}

// DeleteTag implements api.TagService.
func (m *MockTagService) DeleteTag(ctx context.Context, name string) ([]string, error) {
	if m.DeleteTagFn != nil {
		return m.DeleteTagFn(ctx, name)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Tags[:0]
	for _, t := range m.Tags {
		if t != name {
			kept = append(kept, t)
		}
	}
	m.Tags = kept
	return append([]string(nil), m.Tags...), nil
}
