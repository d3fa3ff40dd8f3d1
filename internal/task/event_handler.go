package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/events"
)

// EmittingMessageHandler returns a MessageHandler that publishes each fired
// message as a TypeScheduledMessageFired event. An error from any event
// handler marks the message failed.
func EmittingMessageHandler(emitter events.EventEmitter) MessageHandler {
	return func(ctx context.Context, msg *domain.ScheduledMessage) error {
		event, err := events.NewEvent(events.TypeScheduledMessageFired, events.ScheduledMessageFired{
			JobID:        msg.JobID,
			Message:      msg.Message,
			ScheduledFor: msg.FireAt,
			FiredAt:      time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to build fired event: %w", err)
		}
		return emitter.EmitEvent(ctx, event)
	}
}

// ScheduledMessageEventHandler implements the events.EventHandler interface
// to process fired scheduled messages. Processing records the message in the
// structured log.
type ScheduledMessageEventHandler struct {
	logger *slog.Logger
}

// NewScheduledMessageEventHandler creates a new ScheduledMessageEventHandler.
func NewScheduledMessageEventHandler(logger *slog.Logger) *ScheduledMessageEventHandler {
	return &ScheduledMessageEventHandler{
		logger: logger.With("component", "scheduled_message_event_handler"),
	}
}

// HandleEvent processes TypeScheduledMessageFired events and ignores the rest.
func (h *ScheduledMessageEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeScheduledMessageFired {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.ScheduledMessageFired
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.JobID == "" {
		return errors.New("fired event has no job ID")
	}

	h.logger.Info("processing scheduled message",
		"job_id", payload.JobID,
		"message", payload.Message,
		"scheduled_for", payload.ScheduledFor,
		"lag_ms", payload.FiredAt.Sub(payload.ScheduledFor).Milliseconds(),
		"event_id", event.ID)
	return nil
}

// Ensure ScheduledMessageEventHandler implements events.EventHandler
var _ events.EventHandler = (*ScheduledMessageEventHandler)(nil)
