package sqlite

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// TicketRepository stores tickets in SQLite.
type TicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = repository.NewID()
	}
	if ticket.Version == 0 {
		ticket.Version = domain.InitialTicketVersion
	}
	row := toTicketModel(ticket)
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return getTicket(r.db.WithContext(ctx), id)
}

func (r *TicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&ticketModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + repository.EscapeLike(foldForSearch(search)) + "%"
		query = query.Where(`(title_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var rows []ticketModel
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return mapTickets(rows), nil
}

func (r *TicketRepository) UpdateIfVersion(ctx context.Context, id string, expected int64, patch domain.TicketPatch, now time.Time) (*domain.Ticket, error) {
	updates := map[string]any{
		"updated_at": formatTime(now),
		"version":    gorm.Expr("version + 1"),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
		updates["title_folded"] = foldForSearch(*patch.Title)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
		updates["description_folded"] = foldForSearch(*patch.Description)
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.AssignedTo.Set {
		updates["assigned_to"] = patch.AssignedTo.Value
	}

	var updated *domain.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ticketModel{}).
			Where("id = ? AND version = ?", id, expected).
			Updates(updates)
		if res.Error != nil {
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return repository.ErrVersionConflict
		}
		ticket, err := getTicket(tx, id)
		if err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TicketRepository) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	var rows []ticketModel
	if err := r.db.WithContext(ctx).
		Where("sla_breached = ? AND sla_due_at IS NOT NULL AND sla_due_at <= ?", false, formatTime(now)).
		Order("sla_due_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return mapTickets(rows), nil
}

func (r *TicketRepository) MarkBreached(ctx context.Context, id string, now time.Time) (*domain.Ticket, error) {
	var updated *domain.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stamp := formatTime(now)
		res := tx.Model(&ticketModel{}).
			Where("id = ? AND sla_breached = ? AND sla_due_at IS NOT NULL AND sla_due_at <= ?", id, false, stamp).
			Updates(map[string]any{
				"sla_breached": true,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   stamp,
			})
		if res.Error != nil {
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		ticket, err := getTicket(tx, id)
		if err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getTicket(db *gorm.DB, id string) (*domain.Ticket, error) {
	var row ticketModel
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	ticket := mapTicket(row)
	return &ticket, nil
}

func toTicketModel(t *domain.Ticket) ticketModel {
	return ticketModel{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		TitleFolded:       foldForSearch(t.Title),
		DescriptionFolded: foldForSearch(t.Description),
		Priority:          string(t.Priority),
		Status:            string(t.Status),
		AssignedTo:        t.AssignedTo,
		CreatedBy:         t.CreatedBy,
		CreatedAt:         formatTime(t.CreatedAt),
		UpdatedAt:         formatTime(t.UpdatedAt),
		SLADueAt:          formatTimePtr(t.SLADueAt),
		SLABreached:       t.SLABreached,
		Version:           t.Version,
	}
}

func mapTicket(row ticketModel) domain.Ticket {
	return domain.Ticket{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Priority:    domain.TicketPriority(row.Priority),
		Status:      domain.TicketStatus(row.Status),
		AssignedTo:  row.AssignedTo,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
		SLADueAt:    parseTimePtr(row.SLADueAt),
		SLABreached: row.SLABreached,
		Version:     row.Version,
	}
}

func mapTickets(rows []ticketModel) []domain.Ticket {
	items := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTicket(row))
	}
	return items
}
