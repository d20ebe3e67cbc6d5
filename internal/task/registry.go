package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/phrazzld/vidscribe/internal/domain"
)

type registryEntry struct {
	task domain.Task
	seq  uint64
}

// Registry is the in-memory table of tasks known to this process. Reads
// return copies, so callers never observe a task mid-update.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[string]*registryEntry
	active map[string]string // normalized URL -> id of its non-terminal task
	seq    uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:  make(map[string]*registryEntry),
		active: make(map[string]string),
	}
}

// Get returns a snapshot of the task with the given id.
func (r *Registry) Get(id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return e.task.Clone(), nil
}

// FindActiveByURL returns the non-terminal task for a normalized URL.
func (r *Registry) FindActiveByURL(normalizedURL string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.active[normalizedURL]
	if !ok {
		return domain.Task{}, false
	}
	return r.tasks[id].task.Clone(), true
}

// Admit returns the non-terminal task already registered for normalizedURL,
// or inserts the task built by create. The lookup and the insert happen under
// one lock, so concurrent callers with the same URL get the same task.
func (r *Registry) Admit(
	normalizedURL string,
	create func() (*domain.Task, error),
) (domain.Task, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[normalizedURL]; ok {
		return r.tasks[id].task.Clone(), false, nil
	}

	t, err := create()
	if err != nil {
		return domain.Task{}, false, err
	}
	if t.NormalizedURL != normalizedURL {
		return domain.Task{}, false, fmt.Errorf("%w: task URL %q does not match %q",
			domain.ErrValidation, t.NormalizedURL, normalizedURL)
	}

	r.putLocked(t.Clone())
	return t.Clone(), true, nil
}

// Upsert inserts or replaces a task. A non-terminal task is rejected with
// domain.ErrValidation when another non-terminal task holds its normalized URL.
func (r *Registry) Upsert(t domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActiveLocked(t); err != nil {
		return err
	}
	r.putLocked(t.Clone())
	return nil
}

// Update applies fn to the stored task. If fn returns an error the stored
// task is left untouched. The updated snapshot is returned.
func (r *Registry) Update(id string, fn func(t *domain.Task) error) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}

	working := e.task.Clone()
	if err := fn(&working); err != nil {
		return e.task.Clone(), err
	}
	working.ID = id

	if err := r.checkActiveLocked(working); err != nil {
		return e.task.Clone(), err
	}
	r.putLocked(working)
	return working.Clone(), nil
}

// Delete removes a task. It reports whether the task existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return false
	}
	if r.active[e.task.NormalizedURL] == id {
		delete(r.active, e.task.NormalizedURL)
	}
	delete(r.tasks, id)
	return true
}

// List returns snapshots of all tasks, most recently admitted first.
func (r *Registry) List() []domain.Task {
	r.mu.RLock()
	entries := make([]*registryEntry, 0, len(r.tasks))
	for _, e := range r.tasks {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]domain.Task, len(entries))
	for i, e := range entries {
		out[i] = e.task.Clone()
	}
	r.mu.RUnlock()
	return out
}

// checkActiveLocked enforces one non-terminal task per normalized URL.
func (r *Registry) checkActiveLocked(t domain.Task) error {
	if t.State.IsTerminal() {
		return nil
	}
	if id, ok := r.active[t.NormalizedURL]; ok && id != t.ID {
		return fmt.Errorf("%w: task %s is already active for %q",
			domain.ErrValidation, id, t.NormalizedURL)
	}
	return nil
}

// putLocked stores t and keeps the active-URL index in step with its state.
func (r *Registry) putLocked(t domain.Task) {
	e, ok := r.tasks[t.ID]
	if ok {
		if e.task.NormalizedURL != t.NormalizedURL && r.active[e.task.NormalizedURL] == t.ID {
			delete(r.active, e.task.NormalizedURL)
		}
		e.task = t
	} else {
		r.seq++
		e = &registryEntry{task: t, seq: r.seq}
		r.tasks[t.ID] = e
	}

	if t.State.IsTerminal() {
		if r.active[t.NormalizedURL] == t.ID {
			delete(r.active, t.NormalizedURL)
		}
		return
	}
	r.active[t.NormalizedURL] = t.ID
}
