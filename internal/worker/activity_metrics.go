package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RegisterActivitySubscribers counts every recorded activity by action
// and logs breaches at warn level for alerting.
func RegisterActivitySubscribers(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(func(_ context.Context, event events.Event) error {
		metrics.RecordActivity(string(event.Action))
		return nil
	})
	if logger != nil {
		dispatcher.Subscribe(events.EventTicketSLABreached, func(_ context.Context, event events.Event) error {
			logger.Warn("sla breach recorded", zap.String("ticket_id", event.TicketID))
			return nil
		})
	}
}
