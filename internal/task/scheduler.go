package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Scheduler errors
var (
	// ErrNotCancellable means the message does not exist or is no longer pending.
	ErrNotCancellable = errors.New("scheduled message not found or no longer pending")

	// ErrTaskInFlight means the message is being fired or cancelled right now.
	ErrTaskInFlight = errors.New("scheduled message is being processed")
)

// ValidationError reports a schedule request rejected before anything was
// persisted. It wraps the domain validation error.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MessageHandler processes a scheduled message when its instant arrives.
// A returned error or a panic marks the message failed.
type MessageHandler func(ctx context.Context, msg *domain.ScheduledMessage) error

// SchedulerConfig holds configuration for the Scheduler
type SchedulerConfig struct {
	// Location is the zone schedule requests are interpreted in.
	// If nil, defaults to time.Local
	Location *time.Location

	// SweepInterval defines how often pending messages whose instant has
	// passed without a trigger are expired. Zero disables the sweep.
	SweepInterval time.Duration

	// SweepGrace is how far past its instant a message must be before the
	// sweep expires it
	SweepGrace time.Duration

	// Clock defaults to SystemClock
	Clock Clock
}

// DefaultSchedulerConfig returns the configuration used when nothing is
// configured: local time, a five minute sweep and a one minute grace.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Location:      time.Local,
		SweepInterval: 5 * time.Minute,
		SweepGrace:    time.Minute,
		Clock:         SystemClock{},
	}
}

// SchedulerStats summarizes stored messages by status. ActiveJobs counts the
// triggers registered in this process.
type SchedulerStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Executed   int `json:"executed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Expired    int `json:"expired"`
	ActiveJobs int `json:"active_jobs"`
}

// trigger is the in-memory handle for one pending message.
type trigger struct {
	timer Timer
	msg   *domain.ScheduledMessage
}

// Scheduler fires durable one-shot messages at their scheduled instant.
//
// Every pending message with a future instant has at most one trigger in the
// registry. A job ID is claimed while its fire callback or cancellation is in
// progress, and the durable transition out of pending is conditional, so a
// cancel and a fire never both succeed.
type Scheduler struct {
	store   store.ScheduledMessageStore
	handler MessageHandler
	config  SchedulerConfig
	clock   Clock
	logger  *slog.Logger
	metrics *schedulerMetrics

	mu       sync.Mutex
	triggers map[string]*trigger
	claimed  map[string]struct{}
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler. Triggers are only registered after Start
// or Restore has loaded the stored state.
func NewScheduler(
	messages store.ScheduledMessageStore,
	handler MessageHandler,
	config SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:    messages,
		handler:  handler,
		config:   config,
		clock:    config.Clock,
		logger:   logger.With("component", "scheduler"),
		metrics:  getSchedulerMetrics(),
		triggers: make(map[string]*trigger),
		claimed:  make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start restores stored state and begins the expiry sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore scheduled messages: %w", err)
	}

	if s.config.SweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepMonitor()
	}

	s.logger.Info("scheduler started",
		"location", s.config.Location.String(),
		"sweep_interval", s.config.SweepInterval.String())
	return nil
}

// Stop stops every trigger and the sweep, then waits for running callbacks.
// Messages left pending are picked up by Restore on the next start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for jobID, t := range s.triggers {
		t.timer.Stop()
		delete(s.triggers, jobID)
	}
	s.metrics.activeTriggers.Set(0)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Schedule validates and persists a message to fire at date (YYYY-MM-DD) and
// clock (HH:MM) in the configured location, then registers its trigger.
// Validation failures are returned as *ValidationError. If persisting fails,
// no trigger is registered.
func (s *Scheduler) Schedule(ctx context.Context, message, date, clock string) (*domain.ScheduledMessage, error) {
	now := s.clock.Now()
	jobID := newJobID(now)

	msg, err := domain.NewScheduledMessage(jobID, message, date, clock, s.config.Location, now)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	if err := s.store.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save scheduled message: %w", err)
	}

	s.register(msg)
	s.metrics.scheduledTotal.Inc()

	s.logger.Info("message scheduled",
		"job_id", msg.JobID,
		"fire_at", msg.FireAt,
		"timezone", msg.Timezone)

	return msg, nil
}

// Restore registers triggers for pending messages whose instant is still in
// the future and expires those whose instant has passed. Both sides use the
// same instant, so every pending message lands in exactly one of them.
func (s *Scheduler) Restore(ctx context.Context) error {
	now := s.clock.Now()

	var (
		pending []*domain.ScheduledMessage
		expired []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msgs, err := s.store.ListPendingAfter(gctx, now)
		if err != nil {
			return fmt.Errorf("failed to list pending messages: %w", err)
		}
		pending = msgs
		return nil
	})
	g.Go(func() error {
		ids, err := s.store.ExpireOverdue(gctx, now, s.busyIDs())
		if err != nil {
			return fmt.Errorf("failed to expire overdue messages: %w", err)
		}
		expired = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, msg := range pending {
		s.register(msg)
	}
	s.metrics.expiredTotal.Add(float64(len(expired)))

	s.logger.Info("restored scheduled messages",
		"pending_count", len(pending),
		"expired_count", len(expired))

	return nil
}

// Cancel cancels a pending message. It returns ErrTaskInFlight while the
// message is firing and ErrNotCancellable if it does not exist or already
// left pending. A message with no trigger in this process can still be
// cancelled.
func (s *Scheduler) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	if _, busy := s.claimed[jobID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskInFlight, jobID)
	}
	t, registered := s.triggers[jobID]
	if registered {
		t.timer.Stop()
		delete(s.triggers, jobID)
		s.metrics.activeTriggers.Set(float64(len(s.triggers)))
	}
	s.claimed[jobID] = struct{}{}
	s.mu.Unlock()

	defer s.release(jobID)

	err := s.store.Transition(ctx, jobID, domain.ScheduledMessageStatusCancelled, nil, "")
	switch {
	case err == nil:
		s.metrics.cancelledTotal.Inc()
		s.logger.Info("scheduled message cancelled", "job_id", jobID, "had_trigger", registered)
		return nil

	case errors.Is(err, store.ErrScheduledMessageNotPending):
		return fmt.Errorf("%w: %s", ErrNotCancellable, jobID)

	default:
		// The message is still pending, so its trigger goes back.
		if registered {
			s.register(t.msg)
		}
		return fmt.Errorf("failed to cancel scheduled message %s: %w", jobID, err)
	}
}

// List returns stored messages ordered by fire instant. A nil status returns all.
func (s *Scheduler) List(
	ctx context.Context,
	status *domain.ScheduledMessageStatus,
) ([]*domain.ScheduledMessage, error) {
	if status != nil && !status.IsValid() {
		return nil, &ValidationError{Err: domain.ErrInvalidScheduleStatus}
	}
	msgs, err := s.store.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled messages: %w", err)
	}
	return msgs, nil
}

// Get returns the message with the given job ID.
func (s *Scheduler) Get(ctx context.Context, jobID string) (*domain.ScheduledMessage, error) {
	return s.store.GetByJobID(ctx, jobID)
}

// Stats returns per-status counts and the number of registered triggers.
func (s *Scheduler) Stats(ctx context.Context) (SchedulerStats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return SchedulerStats{}, fmt.Errorf("failed to count scheduled messages: %w", err)
	}

	stats := SchedulerStats{
		Pending:    counts[domain.ScheduledMessageStatusPending],
		Executed:   counts[domain.ScheduledMessageStatusExecuted],
		Failed:     counts[domain.ScheduledMessageStatusFailed],
		Cancelled:  counts[domain.ScheduledMessageStatusCancelled],
		Expired:    counts[domain.ScheduledMessageStatusExpired],
		ActiveJobs: s.ActiveJobs(),
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// ActiveJobs returns the number of registered triggers.
func (s *Scheduler) ActiveJobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// register adds a trigger for msg unless one exists or the scheduler stopped.
func (s *Scheduler) register(msg *domain.ScheduledMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, exists := s.triggers[msg.JobID]; exists {
		return
	}

	t := &trigger{msg: msg}
	t.timer = s.clock.AfterFunc(msg.FireAt.Sub(s.clock.Now()), func() { s.fire(t) })
	s.triggers[msg.JobID] = t
	s.metrics.activeTriggers.Set(float64(len(s.triggers)))
}

// fire runs the handler for a due trigger and records the outcome. The
// trigger is claimed before the handler starts; once claimed, the callback
// and its status update always run to completion.
func (s *Scheduler) fire(t *trigger) {
	jobID := t.msg.JobID

	s.mu.Lock()
	if s.triggers[jobID] != t {
		// Cancelled or stopped after the timer went off.
		s.mu.Unlock()
		return
	}
	delete(s.triggers, jobID)
	s.claimed[jobID] = struct{}{}
	s.metrics.activeTriggers.Set(float64(len(s.triggers)))
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer s.release(jobID)

	logger := s.logger.With("job_id", jobID)
	ctx := context.WithoutCancel(s.ctx)

	start := s.clock.Now()
	s.metrics.fireLag.Observe(start.Sub(t.msg.FireAt).Seconds())
	logger.Info("firing scheduled message", "fire_at", t.msg.FireAt)

	status := domain.ScheduledMessageStatusExecuted
	var lastError string
	if err := s.runHandler(ctx, t.msg); err != nil {
		status = domain.ScheduledMessageStatusFailed
		lastError = err.Error()
		logger.Error("scheduled message handler failed", "error", err)
	}

	executedAt := s.clock.Now()
	err := s.store.Transition(ctx, jobID, status, &executedAt, lastError)
	switch {
	case err == nil:
		s.metrics.firesTotal.WithLabelValues(string(status)).Inc()
		logger.Info("scheduled message fired", "status", status)
	case errors.Is(err, store.ErrScheduledMessageNotPending):
		s.metrics.firesTotal.WithLabelValues("superseded").Inc()
		logger.Warn("scheduled message left pending before its outcome was recorded", "status", status)
	default:
		s.metrics.firesTotal.WithLabelValues("store_error").Inc()
		logger.Error("failed to record scheduled message outcome", "status", status, "error", err)
	}
}

// runHandler calls the handler, converting a panic into an error.
func (s *Scheduler) runHandler(ctx context.Context, msg *domain.ScheduledMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in scheduled message handler: %v", r)
		}
	}()

	if s.handler == nil {
		return nil
	}
	return s.handler(ctx, msg)
}

func (s *Scheduler) release(jobID string) {
	s.mu.Lock()
	delete(s.claimed, jobID)
	s.mu.Unlock()
}

// busyIDs returns the job IDs with a registered trigger or a claim.
func (s *Scheduler) busyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.triggers)+len(s.claimed))
	for id := range s.triggers {
		ids = append(ids, id)
	}
	for id := range s.claimed {
		ids = append(ids, id)
	}
	return ids
}

// sweepMonitor periodically expires pending messages that missed their
// instant without a trigger in this process.
func (s *Scheduler) sweepMonitor() {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C():
			if _, err := s.Sweep(s.ctx); err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// Sweep expires pending messages more than SweepGrace past their instant,
// except those with a registered trigger or an in-progress fire or cancel.
func (s *Scheduler) Sweep(ctx context.Context) ([]string, error) {
	cutoff := s.clock.Now().Add(-s.config.SweepGrace)

	expired, err := s.store.ExpireOverdue(ctx, cutoff, s.busyIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to expire overdue messages: %w", err)
	}

	if len(expired) > 0 {
		s.metrics.expiredTotal.Add(float64(len(expired)))
		s.logger.Info("expired overdue scheduled messages", "count", len(expired), "job_ids", expired)
	}
	return expired, nil
}

// newJobID returns msg_<unix millis>_<9 random characters>.
func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "msg_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
