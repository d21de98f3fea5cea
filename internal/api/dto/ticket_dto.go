package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON only runs when the key is present in the payload.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	SLAMinutes  *int                  `json:"sla_minutes"`
}

// UpdateTicketRequest payload. Version is mandatory.
type UpdateTicketRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *domain.TicketStatus `json:"status"`
	AssignedTo  OptionalString       `json:"assigned_to"`
	Version     *int64               `json:"version"`
}

// Patch converts the request into a domain patch.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		AssignedTo:  domain.NullableString{Set: r.AssignedTo.Set, Value: r.AssignedTo.Value},
	}
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse is the public ticket shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedBy   string                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	SLADueAt    *time.Time            `json:"sla_due_at"`
	SLABreached bool                  `json:"sla_breached"`
	Version     int64                 `json:"version"`
}

// CommentResponse is the public comment shape.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID        string         `json:"id"`
	TicketID  string         `json:"ticket_id"`
	ActorID   *string        `json:"actor_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// TicketEnvelope wraps single ticket responses.
type TicketEnvelope struct {
	Ticket TicketResponse `json:"ticket"`
}

// CommentEnvelope wraps comment responses.
type CommentEnvelope struct {
	Comment CommentResponse `json:"comment"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	NextOffset *int             `json:"next_offset"`
}

// TicketDetailResponse carries a ticket with its thread and audit trail.
type TicketDetailResponse struct {
	Ticket     TicketResponse     `json:"ticket"`
	Comments   []CommentResponse  `json:"comments"`
	Activities []ActivityResponse `json:"activities"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		SLADueAt:    t.SLADueAt,
		SLABreached: t.SLABreached,
		Version:     t.Version,
	}
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// NewActivityResponse maps a domain activity.
func NewActivityResponse(a *domain.Activity) ActivityResponse {
	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return ActivityResponse{
		ID:        a.ID,
		TicketID:  a.TicketID,
		ActorID:   a.ActorID,
		Action:    string(a.Action),
		Metadata:  metadata,
		CreatedAt: a.CreatedAt,
	}
}

// NewTicketListResponse maps a page of tickets.
func NewTicketListResponse(items []domain.Ticket, nextOffset *int) TicketListResponse {
	out := make([]TicketResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTicketResponse(&items[i]))
	}
	return TicketListResponse{Items: out, NextOffset: nextOffset}
}

// NewTicketDetailResponse maps a ticket with comments and activities.
func NewTicketDetailResponse(t *domain.Ticket, comments []domain.Comment, activities []domain.Activity) TicketDetailResponse {
	resp := TicketDetailResponse{
		Ticket:     NewTicketResponse(t),
		Comments:   make([]CommentResponse, 0, len(comments)),
		Activities: make([]ActivityResponse, 0, len(activities)),
	}
	for i := range comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(&comments[i]))
	}
	for i := range activities {
		resp.Activities = append(resp.Activities, NewActivityResponse(&activities[i]))
	}
	return resp
}
