package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxSLAMinutes caps a deadline at one year out.
	MaxSLAMinutes   = 366 * 24 * 60
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	activities repository.ActivityRepository
	controller *ConcurrencyController
	recorder   *ActivityRecorder
	clock      clockwork.Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Repos      *repository.Repositories
	Controller *ConcurrencyController
	Recorder   *ActivityRecorder
	Clock      clockwork.Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	SLAMinutes  *int
}

// TicketListInput describes list filters. Zero Limit means the default.
type TicketListInput struct {
	Query  string
	Limit  int
	Offset int
}

// TicketPage is one page of tickets. NextOffset is nil on the last page.
type TicketPage struct {
	Items      []domain.Ticket
	NextOffset *int
}

// TicketDetail is a ticket with its comments and activity trail.
type TicketDetail struct {
	Ticket     *domain.Ticket
	Comments   []domain.Comment
	Activities []domain.Activity
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TicketService{
		tickets:    deps.Repos.Tickets,
		comments:   deps.Repos.Comments,
		activities: deps.Repos.Activities,
		controller: deps.Controller,
		recorder:   deps.Recorder,
		clock:      clock,
	}
}

// Create opens a ticket on behalf of the caller.
func (s *TicketService) Create(ctx context.Context, identity domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": string(priority)})
	}

	now := s.clock.Now().UTC()
	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   identity.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     domain.InitialTicketVersion,
	}
	if input.SLAMinutes != nil {
		if *input.SLAMinutes <= 0 || *input.SLAMinutes > MaxSLAMinutes {
			return nil, apperrors.NewValidationError("sla_minutes out of range", map[string]any{
				"field": "sla_minutes",
				"min":   1,
				"max":   MaxSLAMinutes,
			})
		}
		due := now.Add(time.Duration(*input.SLAMinutes) * time.Minute)
		ticket.SLADueAt = &due
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.recorder.Record(ctx, ticket.ID, actorOf(identity), domain.ActivityCreated, map[string]any{
		"priority": string(priority),
	})
	return ticket, nil
}

// Get loads a ticket with its comments and activities, both oldest first.
func (s *TicketService) Get(ctx context.Context, id string) (*TicketDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ticketNotFound(id)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ticketNotFound(id)
		}
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	comments, err := s.comments.ListByTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments for %s: %w", id, err)
	}
	activities, err := s.activities.ListByTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", id, err)
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, Activities: activities}, nil
}

// List returns one page of tickets, newest first. Offset pagination may
// skip or repeat rows when tickets are created between page requests.
func (s *TicketService) List(ctx context.Context, input TicketListInput) (*TicketPage, error) {
	limit := ClampLimit(input.Limit)
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	items, err := s.tickets.List(ctx, repository.TicketFilter{
		Search: input.Query,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	page := &TicketPage{Items: items}
	if len(items) == limit {
		next := offset + limit
		page.NextOffset = &next
	}
	return page, nil
}

// Update applies a patch under optimistic locking.
func (s *TicketService) Update(ctx context.Context, identity domain.Identity, id string, expectedVersion *int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.controller.AttemptUpdate(ctx, id, expectedVersion, patch)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, ticket.ID, actorOf(identity), domain.ActivityUpdated, map[string]any{
		"fields_changed": patch.ChangedFields(),
		"version":        ticket.Version,
	})
	return ticket, nil
}

// AddComment attaches a comment to an existing ticket.
func (s *TicketService) AddComment(ctx context.Context, identity domain.Identity, ticketID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, ticketNotFound(ticketID)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, fmt.Errorf("get ticket %s: %w", ticketID, err)
	}

	comment := &domain.Comment{
		TicketID:  ticketID,
		AuthorID:  identity.UserID,
		Content:   content,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, fmt.Errorf("create comment on %s: %w", ticketID, err)
	}
	s.recorder.Record(ctx, ticketID, actorOf(identity), domain.ActivityCommented, map[string]any{
		"comment_id": comment.ID,
	})
	return comment, nil
}

// ClampLimit applies the default page size and bounds it to [1, MaxPageSize].
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultPageSize
	case limit < 1:
		return 1
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func actorOf(identity domain.Identity) *string {
	if identity.UserID == "" {
		return nil
	}
	id := identity.UserID
	return &id
}
