package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter dispatches events synchronously, in registration
// order, to the handlers subscribed to the event's type and then to the
// handlers registered for every type.
type InMemoryEventEmitter struct {
	mu     sync.RWMutex
	byType map[string][]EventHandler
	all    []EventHandler
	logger *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		byType: make(map[string][]EventHandler),
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a handler that receives every event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, handler)
	e.logger.Debug("registered event handler", "event_type", "*", "handler_count", len(e.all))
}

// Subscribe adds a handler that only receives events of eventType.
func (e *InMemoryEventEmitter) Subscribe(eventType string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byType[eventType] = append(e.byType[eventType], handler)
	e.logger.Debug("registered event handler",
		"event_type", eventType,
		"handler_count", len(e.byType[eventType]))
}

// EmitEvent delivers event to every matching handler. A failing or panicking
// handler does not stop delivery to the others; all failures are returned
// joined.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("cannot emit nil event")
	}

	handlers := e.handlersFor(event.Type)
	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for event",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	e.logger.Debug("emitting event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(handlers))

	var errs []error
	for i, handler := range handlers {
		if err := dispatch(ctx, handler, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *InMemoryEventEmitter) handlersFor(eventType string) []EventHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()

	typed := e.byType[eventType]
	handlers := make([]EventHandler, 0, len(typed)+len(e.all))
	handlers = append(handlers, typed...)
	return append(handlers, e.all...)
}

func dispatch(ctx context.Context, handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler.HandleEvent(ctx, event)
}
