package store

import (
	"context"
	"time"

	"github.com/phrazzld/policyhub-api/internal/domain"
)

// ScheduledMessageStore persists scheduled messages, unique by job ID.
//
// Status transitions are conditional on the stored status being pending, so a
// concurrent cancel and fire cannot both succeed.
type ScheduledMessageStore interface {
	// Create saves a new pending message. Returns ErrJobIDExists on collision.
	Create(ctx context.Context, msg *domain.ScheduledMessage) error

	// GetByJobID returns the message or ErrScheduledMessageNotFound.
	GetByJobID(ctx context.Context, jobID string) (*domain.ScheduledMessage, error)

	// List returns messages ordered by fire instant. A nil status returns all.
	List(ctx context.Context, status *domain.ScheduledMessageStatus) ([]*domain.ScheduledMessage, error)

	// ListPendingAfter returns pending messages whose fire instant is after t,
	// ordered by fire instant.
	ListPendingAfter(ctx context.Context, t time.Time) ([]*domain.ScheduledMessage, error)

	// Transition moves a pending message to the given terminal status.
	// executedAt and lastError are recorded as given. Returns
	// ErrScheduledMessageNotPending when no pending message matched.
	Transition(
		ctx context.Context,
		jobID string,
		to domain.ScheduledMessageStatus,
		executedAt *time.Time,
		lastError string,
	) error

	// ExpireOverdue marks pending messages with a fire instant at or before
	// cutoff as expired, skipping the given job IDs. Returns the expired job IDs.
	ExpireOverdue(ctx context.Context, cutoff time.Time, skip []string) ([]string, error)

	// CountByStatus returns the number of messages in each status.
	CountByStatus(ctx context.Context) (map[domain.ScheduledMessageStatus]int, error)
}
