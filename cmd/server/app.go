package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/policyhub-api/internal/config"
	"github.com/phrazzld/policyhub-api/internal/events"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/platform/memory"
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/phrazzld/policyhub-api/internal/store"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// application holds the shared dependencies so they can be wired once and
// shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores       store.Stores
	messageStore store.ScheduledMessageStore
	eventEmitter *events.InMemoryEventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
	ingester     *ingest.Ingester
	scheduler    *task.Scheduler
}

// newApplication wires stores, the ingestion workers and the scheduler. db
// is nil for the memory driver. The scheduler is started, which restores
// pending messages from storage.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if db != nil {
		app.stores = postgres.NewStores(db)
		app.messageStore = postgres.NewPostgresScheduledMessageStore(db)
	} else {
		memDB := memory.NewDB()
		app.stores = memDB.Stores()
		app.messageStore = memDB.ScheduledMessages()
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.Subscribe(events.TypeScheduledMessageFired, task.NewScheduledMessageEventHandler(logger))

	app.taskQueue = task.NewTaskQueue(cfg.Ingest.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Ingest.WorkerCount,
	}, logger)
	app.workerPool.Start()

	pipeline := ingest.NewPipeline(app.stores, logger)
	app.ingester = ingest.NewIngester(app.taskQueue, pipeline, cfg.Ingest.WorkerCount, logger)

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	app.scheduler = task.NewScheduler(
		app.messageStore,
		task.EmittingMessageHandler(app.eventEmitter),
		task.SchedulerConfig{
			Location:      loc,
			SweepInterval: cfg.Scheduler.SweepInterval,
			SweepGrace:    cfg.Scheduler.SweepGrace,
		},
		logger,
	)
	if err := app.scheduler.Start(ctx); err != nil {
		app.scheduler = nil
		app.cleanup()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("application initialized",
		"database_driver", cfg.Database.Driver,
		"ingest_workers", cfg.Ingest.WorkerCount,
		"ingest_queue_size", cfg.Ingest.QueueSize)
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work before closing the database. Buffered
// imports are drained first; pending scheduled messages stay pending in
// storage for the next start.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Wait()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
