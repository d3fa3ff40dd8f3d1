package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeIngestion is the type of a task importing one uploaded policy file.
const TaskTypeIngestion = "ingestion"

// Task is a unit of work run by a WorkerPool. Execute receives a context
// that is cancelled when the pool stops.
type Task interface {
	ID() uuid.UUID
	Type() string

	// Payload describes the task's input as JSON, for logs and diagnostics.
	Payload() []byte

	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consuming side of a queue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producing side of a queue. Enqueue never blocks.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}
