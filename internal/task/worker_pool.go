package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool runs a fixed number of goroutines executing tasks from a queue.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	logger      *slog.Logger
	metrics     *poolMetrics

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount is the number of concurrent workers. Values below one are
	// raised to one.
	WorkerCount int
}

// NewWorkerPool creates a pool reading from taskQueue. Call Start to launch
// the workers.
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		logger:      logger.With("component", "worker_pool"),
		metrics:     getPoolMetrics(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers. Each one consumes tasks until the queue is
// closed and empty or Stop is called.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the context passed to running tasks and waits for every
// worker to return. Buffered tasks are left unprocessed.
func (p *WorkerPool) Stop() {
	p.logger.Info("stopping worker pool")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Wait blocks until every worker has returned. Close the queue first so the
// workers drain the tasks still buffered and then exit.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
	p.logger.Info("worker pool drained")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	tasks := p.taskQueue.GetChannel()
	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("worker stopping, context cancelled")
			return

		case task, ok := <-tasks:
			if !ok {
				logger.Debug("task channel closed, stopping worker")
				return
			}
			p.processTask(task, logger)
		}
	}
}

// processTask executes one task. A panic is recovered and reported as a
// failure so the worker keeps running.
func (p *WorkerPool) processTask(task Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID(), "task_type", task.Type())
	logger.Debug("processing task")

	start := time.Now()
	p.metrics.busyWorkers.Inc()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in task execution: %v", r)
			}
		}()
		return task.Execute(p.ctx)
	}()
	p.metrics.busyWorkers.Dec()
	p.metrics.taskDuration.WithLabelValues(task.Type()).Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.tasksTotal.WithLabelValues(task.Type(), "failed").Inc()
		logger.Error("task execution failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	p.metrics.tasksTotal.WithLabelValues(task.Type(), "completed").Inc()
	logger.Info("task completed", "duration_ms", time.Since(start).Milliseconds())
}
