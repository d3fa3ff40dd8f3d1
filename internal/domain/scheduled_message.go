package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduledMessageStatus represents the state of a scheduled message.
// Pending is the only non-terminal status.
type ScheduledMessageStatus string

// Possible scheduled message status values
const (
	ScheduledMessageStatusPending   ScheduledMessageStatus = "pending"
	ScheduledMessageStatusExecuted  ScheduledMessageStatus = "executed"
	ScheduledMessageStatusFailed    ScheduledMessageStatus = "failed"
	ScheduledMessageStatusCancelled ScheduledMessageStatus = "cancelled"
	ScheduledMessageStatusExpired   ScheduledMessageStatus = "expired"
)

// ScheduledMessageStatuses lists every status in reporting order.
var ScheduledMessageStatuses = []ScheduledMessageStatus{
	ScheduledMessageStatusPending,
	ScheduledMessageStatusExecuted,
	ScheduledMessageStatusFailed,
	ScheduledMessageStatusCancelled,
	ScheduledMessageStatusExpired,
}

// Layouts accepted for the date and time components of a schedule request.
const (
	ScheduleDateLayout = "2006-01-02"
	ScheduleTimeLayout = "15:04"
)

// Common validation errors for ScheduledMessage
var (
	ErrEmptyMessage          = fmt.Errorf("%w: message cannot be empty", ErrValidation)
	ErrEmptyJobID            = fmt.Errorf("%w: job ID cannot be empty", ErrValidation)
	ErrInvalidScheduleDate   = fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrValidation)
	ErrInvalidScheduleTime   = fmt.Errorf("%w: time must be formatted as HH:MM", ErrValidation)
	ErrScheduleNotInFuture   = fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	ErrInvalidScheduleStatus = fmt.Errorf("%w: invalid scheduled message status", ErrValidation)
)

// IsValid reports whether s is a known status.
func (s ScheduledMessageStatus) IsValid() bool {
	switch s {
	case ScheduledMessageStatusPending,
		ScheduledMessageStatusExecuted,
		ScheduledMessageStatusFailed,
		ScheduledMessageStatusCancelled,
		ScheduledMessageStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s ScheduledMessageStatus) IsTerminal() bool {
	return s.IsValid() && s != ScheduledMessageStatusPending
}

// ScheduledMessage is a durable one-shot delivery of a free-text message at
// an absolute instant. ScheduledDate and ScheduledTime keep the wall-clock
// components as requested; Timezone names the location they were read in.
type ScheduledMessage struct {
	ID            uuid.UUID              `json:"id"`
	JobID         string                 `json:"job_id"`
	Message       string                 `json:"message"`
	ScheduledDate string                 `json:"scheduled_date"`
	ScheduledTime string                 `json:"scheduled_time"`
	Timezone      string                 `json:"timezone"`
	FireAt        time.Time              `json:"scheduled_datetime"`
	Status        ScheduledMessageStatus `json:"status"`
	LastError     string                 `json:"last_error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	ExecutedAt    *time.Time             `json:"executed_at,omitempty"`
}

// ParseScheduleInstant combines a YYYY-MM-DD date and an HH:MM time into an
// absolute instant in loc.
func ParseScheduleInstant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	day, err := time.Parse(ScheduleDateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, ErrInvalidScheduleDate
	}

	tod, err := time.Parse(ScheduleTimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, ErrInvalidScheduleTime
	}

	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

// NewScheduledMessage creates a pending ScheduledMessage. The instant described
// by date and clock in loc must be strictly after now.
func NewScheduledMessage(
	jobID, message, date, clock string,
	loc *time.Location,
	now time.Time,
) (*ScheduledMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	fireAt, err := ParseScheduleInstant(date, clock, loc)
	if err != nil {
		return nil, err
	}

	if !fireAt.After(now) {
		return nil, ErrScheduleNotInFuture
	}

	msg := &ScheduledMessage{
		ID:            uuid.New(),
		JobID:         jobID,
		Message:       message,
		ScheduledDate: fireAt.Format(ScheduleDateLayout),
		ScheduledTime: fireAt.Format(ScheduleTimeLayout),
		Timezone:      fireAt.Location().String(),
		FireAt:        fireAt,
		Status:        ScheduledMessageStatusPending,
		CreatedAt:     now.UTC(),
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return msg, nil
}

// Validate checks if the ScheduledMessage has valid data.
func (m *ScheduledMessage) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyID
	}
	if m.JobID == "" {
		return ErrEmptyJobID
	}
	if m.Message == "" {
		return ErrEmptyMessage
	}
	if !m.Status.IsValid() {
		return ErrInvalidScheduleStatus
	}
	return nil
}
