package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ConcurrencyController applies ticket patches with a version-checked
// conditional write.
type ConcurrencyController struct {
	tickets repository.TicketRepository
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewConcurrencyController builds the controller.
func NewConcurrencyController(tickets repository.TicketRepository, clock clockwork.Clock, metrics *observability.Metrics) *ConcurrencyController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConcurrencyController{tickets: tickets, clock: clock, metrics: metrics}
}

// AttemptUpdate applies patch when the stored version equals
// expectedVersion. On success the version is incremented by exactly one.
func (c *ConcurrencyController) AttemptUpdate(ctx context.Context, ticketID string, expectedVersion *int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if expectedVersion == nil {
		return nil, apperrors.NewMissingVersion()
	}
	if err := ValidatePatch(&patch); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, ticketNotFound(ticketID)
	}

	ticket, err := c.tickets.UpdateIfVersion(ctx, ticketID, *expectedVersion, patch, c.clock.Now().UTC())
	if err == nil {
		return ticket, nil
	}
	if errors.Is(err, repository.ErrInvalidReference) {
		return nil, apperrors.NewValidationError("assigned_to references an unknown user", map[string]any{"field": "assigned_to"})
	}
	if !errors.Is(err, repository.ErrVersionConflict) {
		return nil, fmt.Errorf("update ticket %s: %w", ticketID, err)
	}

	// Zero rows matched: tell a missing ticket apart from a stale version.
	current, getErr := c.tickets.GetByID(ctx, ticketID)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrNotFound) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, fmt.Errorf("load ticket %s: %w", ticketID, getErr)
	}
	c.metrics.RecordUpdateConflict()
	return nil, apperrors.NewConflict(apperrors.CodeConflict, "Ticket was updated by someone else", map[string]any{
		"current_version":  current.Version,
		"expected_version": *expectedVersion,
	})
}

// ValidatePatch checks field values before any storage access. Title
// is trimmed in place.
func ValidatePatch(patch *domain.TicketPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return apperrors.NewValidationError("title must not be empty", map[string]any{"field": "title"})
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": string(*patch.Status)})
	}
	if patch.AssignedTo.Set && patch.AssignedTo.Value != nil {
		if _, err := uuid.Parse(*patch.AssignedTo.Value); err != nil {
			return apperrors.NewValidationError("assigned_to must be a user id", map[string]any{"field": "assigned_to"})
		}
	}
	return nil
}

func ticketNotFound(id string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"id": id})
}
