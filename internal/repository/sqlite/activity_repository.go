package sqlite

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ActivityRepository stores the ticket audit trail with JSON metadata.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = repository.NewID()
	}
	metadata := datatypes.JSONMap{}
	for k, v := range activity.Metadata {
		metadata[k] = v
	}
	row := activityModel{
		ID:        activity.ID,
		TicketID:  activity.TicketID,
		ActorID:   activity.ActorID,
		Action:    string(activity.Action),
		Metadata:  metadata,
		CreatedAt: formatTime(activity.CreatedAt),
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *ActivityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error) {
	var rows []activityModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	items := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.Activity{
			ID:        row.ID,
			TicketID:  row.TicketID,
			ActorID:   row.ActorID,
			Action:    domain.ActivityAction(row.Action),
			Metadata:  map[string]any(row.Metadata),
			CreatedAt: parseTime(row.CreatedAt),
		})
	}
	return items, nil
}
