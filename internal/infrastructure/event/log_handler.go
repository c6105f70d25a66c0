package event

import (
	"context"

	"github.com/marketsync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogHandler writes every domain event to the log. It is subscribed as a
// wildcard handler so the event stream can be followed without a broker.
type LogHandler struct {
	logger *zap.Logger
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger.Named("events")}
}

// Handle implements shared.EventHandler
func (h *LogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info(event.EventType(),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes implements shared.EventHandler; nil subscribes to everything
func (h *LogHandler) EventTypes() []string {
	return nil
}
