package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketUpdated     EventType = "ticket_updated"
	EventTicketCommented   EventType = "ticket_commented"
	EventTicketSLABreached EventType = "ticket_sla_breached"
)

// EventTypeForAction maps an activity action to the event published once
// the activity is stored.
func EventTypeForAction(action domain.ActivityAction) EventType {
	switch action {
	case domain.ActivityCreated:
		return EventTicketCreated
	case domain.ActivityUpdated:
		return EventTicketUpdated
	case domain.ActivityCommented:
		return EventTicketCommented
	case domain.ActivitySLABreached:
		return EventTicketSLABreached
	}
	return EventType("ticket_" + string(action))
}

// Event represents a recorded ticket activity.
type Event struct {
	ID        string                `json:"id"`
	Type      EventType             `json:"type"`
	TicketID  string                `json:"ticket_id"`
	ActorID   *string               `json:"actor_id,omitempty"`
	Action    domain.ActivityAction `json:"action"`
	Timestamp time.Time             `json:"timestamp"`
	Payload   map[string]any        `json:"payload"`
}
