package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFixture struct {
	registry  *Registry
	queue     *TaskQueue
	emitter   *recordingEmitter
	admission *Admission
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()

	f := &runnerFixture{
		registry: NewRegistry(),
		queue:    NewTaskQueue(discardLogger()),
		emitter:  &recordingEmitter{},
	}
	a, err := NewAdmission(f.registry, f.queue, f.emitter, discardLogger())
	require.NoError(t, err)
	f.admission = a
	return f
}

func (f *runnerFixture) start(t *testing.T, exec Executor) *Runner {
	t.Helper()
	r, err := NewRunner(f.registry, f.queue, exec, f.emitter, discardLogger())
	require.NoError(t, err)
	require.NoError(t, r.Start())
	t.Cleanup(r.Stop)
	return r
}

func (f *runnerFixture) submit(t *testing.T, url string) string {
	t.Helper()
	id, isNew, err := f.admission.Submit(context.Background(), url)
	require.NoError(t, err)
	require.True(t, isNew)
	return id
}

func (f *runnerFixture) waitTerminal(t *testing.T, id string) domain.Task {
	t.Helper()
	var got domain.Task
	require.Eventually(t, func() bool {
		task, err := f.registry.Get(id)
		if err != nil {
			return false
		}
		got = task
		return task.State.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

// stagedExecutor walks a task through every stage like the real pipeline.
func stagedExecutor(registry *Registry) executorFunc {
	return func(_ context.Context, id string) (domain.TaskResult, error) {
		for _, s := range []domain.TaskState{
			domain.TaskStateExtractingMetadata,
			domain.TaskStateExtractingSubtitles,
			domain.TaskStateSummarizing,
		} {
			if _, err := registry.Update(id, func(t *domain.Task) error {
				return t.Transition(s, time.Now().UTC())
			}); err != nil {
				return domain.TaskResult{}, err
			}
		}
		return domain.TaskResult{Summary: "ok"}, nil
	}
}

func TestNewRunner_Validation(t *testing.T) {
	t.Parallel()

	reg, q, em, lg := NewRegistry(), NewTaskQueue(discardLogger()), &recordingEmitter{}, discardLogger()
	exec := executorFunc(func(context.Context, string) (domain.TaskResult, error) {
		return domain.TaskResult{}, nil
	})

	_, err := NewRunner(nil, q, exec, em, lg)
	assert.ErrorIs(t, err, ErrNilRegistry)
	_, err = NewRunner(reg, nil, exec, em, lg)
	assert.ErrorIs(t, err, ErrNilQueue)
	_, err = NewRunner(reg, q, nil, em, lg)
	assert.ErrorIs(t, err, ErrNilExecutor)
	_, err = NewRunner(reg, q, exec, nil, lg)
	assert.ErrorIs(t, err, ErrNilEmitter)
	_, err = NewRunner(reg, q, exec, em, nil)
	assert.ErrorIs(t, err, ErrNilLogger)

	r, err := NewRunner(reg, q, exec, em, lg)
	require.NoError(t, err)
	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrRunnerStarted)
	r.Stop()
}

func TestRunner_CompletesTask(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)
	f.start(t, stagedExecutor(f.registry))

	id := f.submit(t, "https://example.com/watch?v=1")
	task := f.waitTerminal(t, id)

	assert.Equal(t, domain.TaskStateDone, task.State)
	require.NotNil(t, task.Result)
	assert.Equal(t, "ok", task.Result.Summary)
	assert.Empty(t, task.Error)

	require.Eventually(t, func() bool {
		types := f.emitter.types(id)
		return len(types) > 0 && types[len(types)-1] == events.TaskCompleted
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, events.TaskQueued, f.emitter.types(id)[0])
}

func TestRunner_FailedStageDoesNotStopQueue(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)
	var calls atomic.Int32
	f.start(t, executorFunc(func(ctx context.Context, id string) (domain.TaskResult, error) {
		if calls.Add(1) == 1 {
			return domain.TaskResult{}, errors.New("metadata unavailable: key=AIzaSyA1234567890abcdefghijklmnopqrstu")
		}
		return stagedExecutor(f.registry)(ctx, id)
	}))

	first := f.submit(t, "https://example.com/1")
	second := f.submit(t, "https://example.com/2")

	failed := f.waitTerminal(t, first)
	assert.Equal(t, domain.TaskStateFailed, failed.State)
	assert.Nil(t, failed.Result)
	assert.Contains(t, failed.Error, "metadata unavailable")
	assert.NotContains(t, failed.Error, "AIza", "errors are redacted")

	done := f.waitTerminal(t, second)
	assert.Equal(t, domain.TaskStateDone, done.State)
}

func TestRunner_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)
	var calls atomic.Int32
	f.start(t, executorFunc(func(ctx context.Context, id string) (domain.TaskResult, error) {
		if calls.Add(1) == 1 {
			panic("unexpected nil")
		}
		return stagedExecutor(f.registry)(ctx, id)
	}))

	first := f.submit(t, "https://example.com/1")
	second := f.submit(t, "https://example.com/2")

	failed := f.waitTerminal(t, first)
	assert.Equal(t, domain.TaskStateFailed, failed.State)
	assert.Contains(t, failed.Error, "task panicked")

	assert.Equal(t, domain.TaskStateDone, f.waitTerminal(t, second).State)
}

func TestRunner_ProcessesOneTaskAtATime(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)

	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
		mu          sync.Mutex
		order       []string
	)
	f.start(t, executorFunc(func(ctx context.Context, id string) (domain.TaskResult, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return stagedExecutor(f.registry)(ctx, id)
	}))

	var ids []string
	for _, u := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3", "https://a.example/4"} {
		ids = append(ids, f.submit(t, u))
	}
	for _, id := range ids {
		f.waitTerminal(t, id)
	}

	assert.Equal(t, int32(1), maxInFlight.Load())
	mu.Lock()
	assert.Equal(t, ids, order, "tasks run in submission order")
	mu.Unlock()
}

func TestRunner_SkipsTaskDeletedWhileQueued(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)

	release := make(chan struct{})
	var (
		calls    atomic.Int32
		executed sync.Map
	)
	f.start(t, executorFunc(func(ctx context.Context, id string) (domain.TaskResult, error) {
		executed.Store(id, true)
		if calls.Add(1) == 1 {
			<-release
		}
		return stagedExecutor(f.registry)(ctx, id)
	}))

	blocker := f.submit(t, "https://example.com/blocker")
	victim := f.submit(t, "https://example.com/victim")
	last := f.submit(t, "https://example.com/last")

	require.True(t, f.registry.Delete(victim))
	close(release)

	f.waitTerminal(t, blocker)
	f.waitTerminal(t, last)

	_, ran := executed.Load(victim)
	assert.False(t, ran)
}

func TestRunner_SkipsTerminalTask(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)

	task, err := domain.NewTask("raw", "https://example.com/x")
	require.NoError(t, err)
	require.NoError(t, task.Fail("rejected before processing", time.Now().UTC()))
	require.NoError(t, f.registry.Upsert(*task))
	require.NoError(t, f.queue.Enqueue(task.ID))

	var ran atomic.Bool
	f.start(t, executorFunc(func(ctx context.Context, id string) (domain.TaskResult, error) {
		if id == task.ID {
			ran.Store(true)
		}
		return stagedExecutor(f.registry)(ctx, id)
	}))

	next := f.submit(t, "https://example.com/next")
	f.waitTerminal(t, next)

	assert.False(t, ran.Load())
	stored, _ := f.registry.Get(task.ID)
	assert.Equal(t, "rejected before processing", stored.Error)
}

func TestRunner_StatesAreMonotonic(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)
	f.start(t, stagedExecutor(f.registry))

	id := f.submit(t, "https://example.com/mono")

	last := -1
	require.Eventually(t, func() bool {
		task, err := f.registry.Get(id)
		if err != nil {
			return false
		}
		ord := task.State.Ordinal()
		assert.GreaterOrEqual(t, ord, last)
		last = ord
		return task.State.IsTerminal()
	}, 2*time.Second, time.Millisecond)
}
