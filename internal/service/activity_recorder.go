package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const activityWriteTimeout = 5 * time.Second

// ActivityRecorder appends audit entries after a write has committed.
// A failed append is logged and counted but never surfaces to the caller.
type ActivityRecorder struct {
	activities repository.ActivityRepository
	dispatcher events.Dispatcher
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityRecorder builds a recorder. dispatcher and metrics may be nil.
func NewActivityRecorder(activities repository.ActivityRepository, dispatcher events.Dispatcher, clock clockwork.Clock, logger *zap.Logger, metrics *observability.Metrics) *ActivityRecorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityRecorder{
		activities: activities,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Record appends one activity. actorID is nil for system events.
func (r *ActivityRecorder) Record(ctx context.Context, ticketID string, actorID *string, action domain.ActivityAction, metadata map[string]any) {
	// The triggering write already committed; a client disconnect must
	// not drop its audit entry.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteTimeout)
	defer cancel()

	if metadata == nil {
		metadata = map[string]any{}
	}
	activity := &domain.Activity{
		TicketID:  ticketID,
		ActorID:   actorID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: r.clock.Now().UTC(),
	}
	if err := r.activities.Append(ctx, activity); err != nil {
		r.metrics.RecordActivityFailure()
		r.logger.Error("failed to record activity",
			zap.String("ticket_id", ticketID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return
	}

	if r.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        activity.ID,
		Type:      events.EventTypeForAction(action),
		TicketID:  ticketID,
		ActorID:   actorID,
		Action:    action,
		Timestamp: activity.CreatedAt,
		Payload:   metadata,
	}
	if err := r.dispatcher.Publish(ctx, event); err != nil {
		r.logger.Warn("activity subscriber failed",
			zap.String("ticket_id", ticketID),
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}
