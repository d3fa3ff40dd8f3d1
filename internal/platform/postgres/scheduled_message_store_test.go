package postgres_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/phrazzld/policyhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughConverter lets slice arguments (bound by pgx as arrays) reach sqlmock.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v interface{}) (driver.Value, error) {
	return v, nil
}

var scheduledMessageRowColumns = []string{
	"id", "job_id", "message", "scheduled_date", "scheduled_time", "timezone", "fire_at",
	"status", "last_error", "created_at", "executed_at",
}

func newPendingMessage(t *testing.T) *domain.ScheduledMessage {
	t.Helper()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	msg, err := domain.NewScheduledMessage("msg_1_abc", "renewal reminder", "2025-03-02", "09:30", time.UTC, now)
	require.NoError(t, err)
	return msg
}

func TestScheduledMessageStore_Create(t *testing.T) {
	t.Run("inserts the message", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		msg := newPendingMessage(t)
		mock.ExpectExec("INSERT INTO scheduled_messages").
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := postgres.NewPostgresScheduledMessageStore(db)
		require.NoError(t, s.Create(context.Background(), msg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate job id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("INSERT INTO scheduled_messages").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "scheduled_messages_job_id_key"})

		s := postgres.NewPostgresScheduledMessageStore(db)
		err = s.Create(context.Background(), newPendingMessage(t))
		assert.ErrorIs(t, err, store.ErrJobIDExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid message never reaches the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		msg := newPendingMessage(t)
		msg.JobID = ""

		s := postgres.NewPostgresScheduledMessageStore(db)
		err = s.Create(context.Background(), msg)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEmptyJobID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScheduledMessageStore_GetByJobID(t *testing.T) {
	t.Run("presents fire instant in the scheduled zone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		id := uuid.New()
		fireAt := time.Date(2025, 3, 2, 4, 0, 0, 0, time.UTC)
		executedAt := fireAt.Add(time.Second)
		rows := sqlmock.NewRows(scheduledMessageRowColumns).AddRow(
			id.String(), "msg_1_abc", "hello", "2025-03-02", "09:30", "Asia/Kolkata", fireAt,
			"executed", nil, fireAt.Add(-time.Hour), executedAt,
		)
		mock.ExpectQuery("FROM scheduled_messages WHERE job_id").
			WithArgs("msg_1_abc").
			WillReturnRows(rows)

		s := postgres.NewPostgresScheduledMessageStore(db)
		msg, err := s.GetByJobID(context.Background(), "msg_1_abc")
		require.NoError(t, err)

		assert.Equal(t, id, msg.ID)
		assert.Equal(t, domain.ScheduledMessageStatusExecuted, msg.Status)
		assert.True(t, msg.FireAt.Equal(fireAt))
		assert.Equal(t, "Asia/Kolkata", msg.FireAt.Location().String())
		assert.Equal(t, 9, msg.FireAt.Hour())
		require.NotNil(t, msg.ExecutedAt)
		assert.True(t, msg.ExecutedAt.Equal(executedAt))
		assert.Empty(t, msg.LastError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("FROM scheduled_messages WHERE job_id").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(scheduledMessageRowColumns))

		s := postgres.NewPostgresScheduledMessageStore(db)
		_, err = s.GetByJobID(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrScheduledMessageNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestScheduledMessageStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	fireAt := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(scheduledMessageRowColumns).
		AddRow(uuid.New().String(), "msg_1", "a", "2025-03-02", "09:30", "UTC", fireAt,
			"pending", nil, fireAt.Add(-time.Hour), nil).
		AddRow(uuid.New().String(), "msg_2", "b", "2025-03-02", "10:30", "UTC", fireAt.Add(time.Hour),
			"pending", nil, fireAt.Add(-time.Hour), nil)

	mock.ExpectQuery("WHERE status = \\$1").
		WithArgs("pending").
		WillReturnRows(rows)

	s := postgres.NewPostgresScheduledMessageStore(db)
	pending := domain.ScheduledMessageStatusPending
	msgs, err := s.List(context.Background(), &pending)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg_1", msgs[0].JobID)
	assert.Equal(t, "msg_2", msgs[1].JobID)
	assert.Nil(t, msgs[0].ExecutedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledMessageStore_Transition(t *testing.T) {
	executedAt := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		to       domain.ScheduledMessageStatus
		affected int64
		execErr  error
		wantErr  error
		noQuery  bool
	}{
		{name: "pending row transitions", to: domain.ScheduledMessageStatusExecuted, affected: 1},
		{
			name:     "already terminal",
			to:       domain.ScheduledMessageStatusCancelled,
			affected: 0,
			wantErr:  store.ErrScheduledMessageNotPending,
		},
		{
			name:    "pending is not a target",
			to:      domain.ScheduledMessageStatusPending,
			wantErr: store.ErrInvalidEntity,
			noQuery: true,
		},
		{
			name:    "database failure",
			to:      domain.ScheduledMessageStatusFailed,
			execErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			if !tt.noQuery {
				exp := mock.ExpectExec("UPDATE scheduled_messages").
					WithArgs(string(tt.to), sqlmock.AnyArg(), sqlmock.AnyArg(), "msg_1")
				if tt.execErr != nil {
					exp.WillReturnError(tt.execErr)
				} else {
					exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
				}
			}

			s := postgres.NewPostgresScheduledMessageStore(db)
			err = s.Transition(context.Background(), "msg_1", tt.to, &executedAt, "")

			switch {
			case tt.execErr != nil:
				assert.ErrorIs(t, err, tt.execErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScheduledMessageStore_ExpireOverdue(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	cutoff := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	skip := []string{"msg_inflight"}

	mock.ExpectQuery("SET status = 'expired'").
		WithArgs(cutoff, skip).
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow("msg_1").AddRow("msg_2"))

	s := postgres.NewPostgresScheduledMessageStore(db)
	expired, err := s.ExpireOverdue(context.Background(), cutoff, skip)
	require.NoError(t, err)
	assert.Equal(t, []string{"msg_1", "msg_2"}, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledMessageStore_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("executed", 2))

	s := postgres.NewPostgresScheduledMessageStore(db)
	counts, err := s.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.ScheduledMessageStatusPending])
	assert.Equal(t, 2, counts[domain.ScheduledMessageStatusExecuted])
	assert.Equal(t, 0, counts[domain.ScheduledMessageStatusFailed])
	assert.NoError(t, mock.ExpectationsWereMet())
}
