package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/policyhub-api/internal/api/shared"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// MessageScheduler is the scheduler surface exposed over HTTP.
type MessageScheduler interface {
	Schedule(ctx context.Context, message, date, clock string) (*domain.ScheduledMessage, error)
	List(ctx context.Context, status *domain.ScheduledMessageStatus) ([]*domain.ScheduledMessage, error)
	Cancel(ctx context.Context, jobID string) error
	Stats(ctx context.Context) (task.SchedulerStats, error)
}

// ScheduleHandler handles scheduled message requests.
type ScheduleHandler struct {
	scheduler MessageScheduler
	logger    *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduler MessageScheduler, logger *slog.Logger) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{
		scheduler: scheduler,
		logger:    logger.With("component", "schedule_handler"),
	}
}

// ScheduleMessage handles POST /api/schedule-message requests
func (h *ScheduleHandler) ScheduleMessage(w http.ResponseWriter, r *http.Request) {
	var req ScheduleMessageRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			SanitizeValidationError(err)+". Provide message, day (YYYY-MM-DD) and time (HH:MM)")
		return
	}

	msg, err := h.scheduler.Schedule(r.Context(), req.Message, req.Day, req.Time)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("message scheduled via API",
		"job_id", msg.JobID,
		"fire_at", msg.FireAt)

	shared.RespondWithJSON(w, r, http.StatusCreated, scheduledMessageToResponse(msg))
}

// ListScheduledMessages handles GET /api/scheduled-messages requests. The
// optional status query parameter filters by status.
func (h *ScheduleHandler) ListScheduledMessages(w http.ResponseWriter, r *http.Request) {
	status := parseStatusFilter(r.URL.Query().Get("status"))

	msgs, err := h.scheduler.List(r.Context(), status)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := ScheduledMessageListResponse{
		Count:    len(msgs),
		Messages: make([]ScheduledMessageResponse, 0, len(msgs)),
	}
	for _, msg := range msgs {
		resp.Messages = append(resp.Messages, scheduledMessageToResponse(msg))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CancelScheduledMessage handles DELETE /api/scheduled-messages/{id} requests
func (h *ScheduleHandler) CancelScheduledMessage(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing scheduled message ID")
		return
	}

	if err := h.scheduler.Cancel(r.Context(), jobID); err != nil {
		var opts []shared.ResponseOption
		if errors.Is(err, task.ErrTaskInFlight) {
			opts = append(opts, shared.WithElevatedLogLevel())
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err, opts...)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CancelResponse{
		JobID:   jobID,
		Status:  string(domain.ScheduledMessageStatusCancelled),
		Message: "Scheduled message cancelled",
	})
}

// Stats handles GET /api/scheduler/stats requests
func (h *ScheduleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scheduler.Stats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load scheduler stats", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
