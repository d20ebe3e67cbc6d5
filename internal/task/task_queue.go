package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by a queue after Close.
var ErrQueueClosed = errors.New("task queue is closed")

// TaskQueue is an unbounded FIFO of task ids that satisfies both
// TaskQueueReader and TaskQueueWriter.
type TaskQueue struct {
	mu     sync.Mutex
	ids    []string
	notify chan struct{}
	closed bool
	logger *slog.Logger
}

// NewTaskQueue creates an empty task queue.
func NewTaskQueue(logger *slog.Logger) *TaskQueue {
	return &TaskQueue{
		notify: make(chan struct{}, 1),
		logger: logger,
	}
}

// Enqueue appends a task id to the queue.
// Returns ErrQueueClosed once the queue has been closed.
func (q *TaskQueue) Enqueue(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.ids = append(q.ids, taskID)
	select {
	case q.notify <- struct{}{}:
	default:
	}

	q.logger.Debug("task enqueued",
		"task_id", taskID,
		"queue_len", len(q.ids))
	return nil
}

// Next removes and returns the oldest id. Ids still queued at Close are
// handed out before ErrQueueClosed is returned.
func (q *TaskQueue) Next(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.ids) > 0 {
			id := q.ids[0]
			q.ids[0] = ""
			q.ids = q.ids[1:]
			q.mu.Unlock()
			return id, nil
		}
		if q.closed {
			q.mu.Unlock()
			return "", ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of ids waiting.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Close closes the task queue, preventing further task submission.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.notify)
		q.logger.Info("task queue closed", "pending", len(q.ids))
	}
}

var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)
