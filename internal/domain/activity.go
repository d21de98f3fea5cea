package domain

import "time"

// ActivityAction captures what happened in an activity entry.
type ActivityAction string

const (
	ActivityCreated     ActivityAction = "created"
	ActivityUpdated     ActivityAction = "updated"
	ActivityCommented   ActivityAction = "commented"
	ActivitySLABreached ActivityAction = "sla_breached"
)

// ActivityActions lists every action in a stable order.
var ActivityActions = []ActivityAction{
	ActivityCreated,
	ActivityUpdated,
	ActivityCommented,
	ActivitySLABreached,
}

// Activity is an immutable audit trail entry. ActorID is nil for
// system-originated events.
type Activity struct {
	ID        string
	TicketID  string
	ActorID   *string
	Action    ActivityAction
	Metadata  map[string]any
	CreatedAt time.Time
}
