package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded FIFO of tasks. Producers are rejected rather than
// blocked when it is full, so request handlers can answer with a retry hint.
type TaskQueue struct {
	mu      sync.RWMutex
	tasks   chan Task
	closed  bool
	logger  *slog.Logger
	metrics *poolMetrics
}

// NewTaskQueue creates a queue buffering up to size tasks. A size of zero
// accepts a task only while a worker is waiting for one.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size < 0 {
		size = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		tasks:   make(chan Task, size),
		logger:  logger.With("component", "task_queue"),
		metrics: getPoolMetrics(),
	}
}

// Enqueue adds a task without blocking. It returns ErrQueueFull when the
// buffer is exhausted and ErrQueueClosed after Close.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.rejectedTotal.WithLabelValues(task.Type(), "closed").Inc()
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.logger.Debug("task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(q.tasks),
			"queue_cap", cap(q.tasks))
		return nil
	default:
		q.metrics.rejectedTotal.WithLabelValues(task.Type(), "full").Inc()
		q.logger.Warn("task rejected, queue full",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_cap", cap(q.tasks))
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Close stops accepting tasks. Buffered tasks stay readable, and the channel
// is closed once they are consumed.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", "buffered", len(q.tasks))
}

// GetChannel returns the channel workers consume from.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}

// Len returns the number of buffered tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Cap returns the buffer capacity.
func (q *TaskQueue) Cap() int {
	return cap(q.tasks)
}
