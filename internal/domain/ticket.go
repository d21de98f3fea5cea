package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// InitialTicketVersion is the version a ticket carries right after creation.
const InitialTicketVersion int64 = 1

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	AssignedTo  *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SLADueAt    *time.Time
	SLABreached bool
	Version     int64
}

// SLAPending reports whether the ticket has a deadline that has not been breached yet.
func (t *Ticket) SLAPending() bool {
	return t.SLADueAt != nil && !t.SLABreached
}

// NullableString distinguishes an absent field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// TicketPatch lists the fields a caller asked to change. Nil or unset
// fields are left untouched.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *TicketStatus
	AssignedTo  NullableString
}

// ChangedFields returns the names of the fields present in the patch.
func (p TicketPatch) ChangedFields() []string {
	fields := make([]string, 0, 4)
	if p.AssignedTo.Set {
		fields = append(fields, "assigned_to")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Title != nil {
		fields = append(fields, "title")
	}
	return fields
}
