package api

import (
	"time"

	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// Common request/response structures

// ScheduleMessageRequest is the payload for POST /api/schedule-message.
// Day is YYYY-MM-DD and Time is HH:MM in the scheduler's timezone.
type ScheduleMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
	Day     string `json:"day"     validate:"required"`
	Time    string `json:"time"    validate:"required"`
}

// ScheduledMessageResponse describes one scheduled message.
type ScheduledMessageResponse struct {
	JobID         string     `json:"job_id"`
	Message       string     `json:"message"`
	ScheduledDate string     `json:"scheduled_date"`
	ScheduledTime string     `json:"scheduled_time"`
	Timezone      string     `json:"timezone"`
	ScheduledFor  time.Time  `json:"scheduled_datetime"`
	Status        string     `json:"status"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
}

// ScheduledMessageListResponse is the body of GET /api/scheduled-messages.
type ScheduledMessageListResponse struct {
	Count    int                        `json:"count"`
	Messages []ScheduledMessageResponse `json:"messages"`
}

// CancelResponse is the body of a successful cancellation.
type CancelResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadResponse is the body of a completed import.
type UploadResponse struct {
	Message string         `json:"message"`
	Report  *ingest.Report `json:"data"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string               `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Database  string               `json:"database,omitempty"`
	Scheduler *task.SchedulerStats `json:"scheduler,omitempty"`
	Upload    ingest.UploadStatus  `json:"upload"`
}
