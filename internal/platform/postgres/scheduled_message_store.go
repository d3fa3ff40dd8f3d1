package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresScheduledMessageStore implements store.ScheduledMessageStore using PostgreSQL.
type PostgresScheduledMessageStore struct {
	db store.DBTX
}

// NewPostgresScheduledMessageStore creates a new PostgresScheduledMessageStore.
func NewPostgresScheduledMessageStore(db store.DBTX) *PostgresScheduledMessageStore {
	return &PostgresScheduledMessageStore{db: db}
}

var _ store.ScheduledMessageStore = (*PostgresScheduledMessageStore)(nil)

const scheduledMessageColumns = `
	id, job_id, message, scheduled_date, scheduled_time, timezone, fire_at,
	status, last_error, created_at, executed_at
`

// Create implements store.ScheduledMessageStore.Create
func (s *PostgresScheduledMessageStore) Create(ctx context.Context, msg *domain.ScheduledMessage) error {
	log := logger.FromContext(ctx)

	if err := msg.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO scheduled_messages (` + scheduledMessageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.JobID,
		msg.Message,
		msg.ScheduledDate,
		msg.ScheduledTime,
		msg.Timezone,
		msg.FireAt.UTC(),
		string(msg.Status),
		nullString(msg.LastError),
		msg.CreatedAt,
		msg.ExecutedAt,
	)
	if err != nil {
		log.Error("failed to save scheduled message",
			"job_id", msg.JobID,
			"error", err)
		return mapCreateError("scheduled_message", err, store.ErrJobIDExists)
	}

	return nil
}

// GetByJobID implements store.ScheduledMessageStore.GetByJobID
func (s *PostgresScheduledMessageStore) GetByJobID(ctx context.Context, jobID string) (*domain.ScheduledMessage, error) {
	query := `SELECT ` + scheduledMessageColumns + ` FROM scheduled_messages WHERE job_id = $1`

	msg, err := scanScheduledMessage(s.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		return nil, mapGetError("scheduled_message", err, store.ErrScheduledMessageNotFound)
	}
	return msg, nil
}

// List implements store.ScheduledMessageStore.List
func (s *PostgresScheduledMessageStore) List(
	ctx context.Context,
	status *domain.ScheduledMessageStatus,
) ([]*domain.ScheduledMessage, error) {
	if status == nil {
		query := `SELECT ` + scheduledMessageColumns + ` FROM scheduled_messages ORDER BY fire_at ASC, created_at ASC`
		return s.query(ctx, query)
	}

	query := `
		SELECT ` + scheduledMessageColumns + `
		FROM scheduled_messages
		WHERE status = $1
		ORDER BY fire_at ASC, created_at ASC
	`
	return s.query(ctx, query, string(*status))
}

// ListPendingAfter implements store.ScheduledMessageStore.ListPendingAfter
func (s *PostgresScheduledMessageStore) ListPendingAfter(
	ctx context.Context,
	t time.Time,
) ([]*domain.ScheduledMessage, error) {
	query := `
		SELECT ` + scheduledMessageColumns + `
		FROM scheduled_messages
		WHERE status = 'pending' AND fire_at > $1
		ORDER BY fire_at ASC
	`
	return s.query(ctx, query, t.UTC())
}

// Transition implements store.ScheduledMessageStore.Transition
func (s *PostgresScheduledMessageStore) Transition(
	ctx context.Context,
	jobID string,
	to domain.ScheduledMessageStatus,
	executedAt *time.Time,
	lastError string,
) error {
	log := logger.FromContext(ctx)

	if !to.IsTerminal() {
		return invalidEntity(domain.ErrInvalidScheduleStatus)
	}

	query := `
		UPDATE scheduled_messages
		SET status = $1, executed_at = $2, last_error = $3
		WHERE job_id = $4 AND status = 'pending'
	`

	var executed sql.NullTime
	if executedAt != nil {
		executed = sql.NullTime{Time: executedAt.UTC(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		string(to),
		executed,
		nullString(lastError),
		jobID,
	)
	if err != nil {
		log.Error("failed to update scheduled message status",
			"job_id", jobID,
			"status", to,
			"error", err)
		return wrapError("scheduled_message", "transition", err)
	}

	return checkRowsAffected(result, store.ErrScheduledMessageNotPending)
}

// ExpireOverdue implements store.ScheduledMessageStore.ExpireOverdue
func (s *PostgresScheduledMessageStore) ExpireOverdue(
	ctx context.Context,
	cutoff time.Time,
	skip []string,
) ([]string, error) {
	if skip == nil {
		skip = []string{}
	}

	query := `
		UPDATE scheduled_messages
		SET status = 'expired'
		WHERE status = 'pending' AND fire_at <= $1 AND NOT (job_id = ANY($2))
		RETURNING job_id
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff.UTC(), skip)
	if err != nil {
		return nil, wrapError("scheduled_message", "expire_overdue", err)
	}
	defer func() { _ = rows.Close() }()

	var expired []string
	for rows.Next() {
		var jobID string
		if err := rows.Scan(&jobID); err != nil {
			return nil, fmt.Errorf("failed to scan expired job id: %w", err)
		}
		expired = append(expired, jobID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired job ids: %w", err)
	}

	return expired, nil
}

// CountByStatus implements store.ScheduledMessageStore.CountByStatus
func (s *PostgresScheduledMessageStore) CountByStatus(
	ctx context.Context,
) (map[domain.ScheduledMessageStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM scheduled_messages GROUP BY status`)
	if err != nil {
		return nil, wrapError("scheduled_message", "count_by_status", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.ScheduledMessageStatus]int, len(domain.ScheduledMessageStatuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[domain.ScheduledMessageStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

func (s *PostgresScheduledMessageStore) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.ScheduledMessage, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query scheduled messages", "error", err)
		return nil, wrapError("scheduled_message", "list", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []*domain.ScheduledMessage
	for rows.Next() {
		msg, err := scanScheduledMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled messages: %w", err)
	}

	return msgs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledMessage(row rowScanner) (*domain.ScheduledMessage, error) {
	var (
		msg        domain.ScheduledMessage
		status     string
		lastError  sql.NullString
		executedAt sql.NullTime
	)

	err := row.Scan(
		&msg.ID,
		&msg.JobID,
		&msg.Message,
		&msg.ScheduledDate,
		&msg.ScheduledTime,
		&msg.Timezone,
		&msg.FireAt,
		&status,
		&lastError,
		&msg.CreatedAt,
		&executedAt,
	)
	if err != nil {
		return nil, err
	}

	msg.Status = domain.ScheduledMessageStatus(status)
	msg.LastError = lastError.String
	if executedAt.Valid {
		t := executedAt.Time
		msg.ExecutedAt = &t
	}

	// Present the instant in the zone it was scheduled in.
	if loc, err := time.LoadLocation(msg.Timezone); err == nil {
		msg.FireAt = msg.FireAt.In(loc)
	}

	return &msg, nil
}
