package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// jobResult is the single message a job sends back to its caller.
type jobResult struct {
	report *Report
	err    error
}

// jobPayload is the serialized form of a job.
type jobPayload struct {
	Path     string   `json:"path"`
	FileType FileType `json:"file_type"`
}

// job imports one uploaded file on a worker goroutine. It implements
// task.Task and reports exactly once on its result channel.
type job struct {
	id       uuid.UUID
	path     string
	fileType FileType
	pipeline *Pipeline
	logger   *slog.Logger
	result   chan jobResult
	done     func(error)

	mu     sync.Mutex
	status task.TaskStatus
}

func newJob(path string, fileType FileType, pipeline *Pipeline, logger *slog.Logger, done func(error)) *job {
	id := uuid.New()
	return &job{
		id:       id,
		path:     path,
		fileType: fileType,
		pipeline: pipeline,
		logger:   logger.With("task_id", id, "file_type", fileType),
		result:   make(chan jobResult, 1),
		done:     done,
		status:   task.TaskStatusPending,
	}
}

func (j *job) ID() uuid.UUID { return j.id }

func (j *job) Type() string { return task.TaskTypeIngestion }

func (j *job) Payload() []byte {
	b, _ := json.Marshal(jobPayload{Path: j.path, FileType: j.fileType})
	return b
}

func (j *job) Status() task.TaskStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *job) setStatus(s task.TaskStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

// Execute processes the file, removes it and publishes the outcome. The batch
// runs to completion even if the submitting request goes away.
func (j *job) Execute(ctx context.Context) (err error) {
	j.setStatus(task.TaskStatusProcessing)

	var report *Report
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in ingestion job: %v", r)
			report = nil
		}

		j.removeFile()

		if err != nil {
			j.setStatus(task.TaskStatusFailed)
		} else {
			j.setStatus(task.TaskStatusCompleted)
		}
		if j.done != nil {
			j.done(err)
		}
		j.result <- jobResult{report: report, err: err}
	}()

	report, err = j.pipeline.ProcessFile(context.WithoutCancel(ctx), j.path, j.fileType)
	return err
}

func (j *job) removeFile() {
	if err := os.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		j.logger.Warn("failed to remove import file", "path", j.path, "error", err)
	}
}

// UploadStatus describes the ingestion worker capacity.
type UploadStatus struct {
	Workers        int    `json:"workers"`
	QueueLength    int    `json:"queue_length"`
	QueueCapacity  int    `json:"queue_capacity"`
	InFlight       int64  `json:"in_flight"`
	CompletedTotal uint64 `json:"completed_total"`
	FailedTotal    uint64 `json:"failed_total"`
}

// queue is the part of task.TaskQueue the Ingester needs.
type queue interface {
	task.TaskQueueWriter
	Len() int
	Cap() int
}

// Ingester runs import jobs off the request path and waits for their result.
type Ingester struct {
	queue    queue
	pipeline *Pipeline
	workers  int
	logger   *slog.Logger

	inFlight  atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewIngester creates an Ingester submitting jobs to q, which is drained by
// a pool of the given number of workers.
func NewIngester(q queue, pipeline *Pipeline, workers int, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		queue:    q,
		pipeline: pipeline,
		workers:  workers,
		logger:   logger.With("component", "ingester"),
	}
}

// Ingest schedules the import of the file at path and blocks until the job
// reports. The file is removed once the job finishes, whatever the outcome.
// If ctx ends first, Ingest returns ctx.Err() and the job keeps running.
func (i *Ingester) Ingest(ctx context.Context, path string, fileType FileType) (*Report, error) {
	j := newJob(path, fileType, i.pipeline, i.logger, i.finish)

	i.inFlight.Add(1)
	if err := i.queue.Enqueue(j); err != nil {
		i.inFlight.Add(-1)
		i.logger.Warn("failed to enqueue import job", "task_id", j.ID(), "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			i.logger.Warn("failed to remove import file", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to enqueue import job: %w", err)
	}

	i.logger.Debug("import job enqueued", "task_id", j.ID(), "file_type", fileType)

	select {
	case res := <-j.result:
		return res.report, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (i *Ingester) finish(err error) {
	i.inFlight.Add(-1)
	if err != nil {
		i.failed.Add(1)
		return
	}
	i.completed.Add(1)
}

// Status reports current capacity and job counters.
func (i *Ingester) Status() UploadStatus {
	return UploadStatus{
		Workers:        i.workers,
		QueueLength:    i.queue.Len(),
		QueueCapacity:  i.queue.Cap(),
		InFlight:       i.inFlight.Load(),
		CompletedTotal: i.completed.Load(),
		FailedTotal:    i.failed.Load(),
	}
}

var _ task.Task = (*job)(nil)
