package domain

import "time"

// Comment is an immutable note attached to a ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
