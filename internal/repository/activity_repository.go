package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ActivityRepository stores the append-only ticket audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = NewID()
	}
	metadata := activity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	const query = `
        INSERT INTO ticket_activities (id, ticket_id, actor_id, action, metadata, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = r.pool.Exec(ctx, query,
		activity.ID,
		activity.TicketID,
		activity.ActorID,
		activity.Action,
		payload,
		activity.CreatedAt,
	)
	return translatePgError(err)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error) {
	const query = `
        SELECT id, ticket_id, actor_id, action, metadata, created_at
        FROM ticket_activities WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Activity{}
	for rows.Next() {
		var (
			activity domain.Activity
			payload  []byte
		)
		if err := rows.Scan(
			&activity.ID,
			&activity.TicketID,
			&activity.ActorID,
			&activity.Action,
			&payload,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &activity.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		activity.CreatedAt = activity.CreatedAt.UTC()
		result = append(result, activity)
	}
	return result, rows.Err()
}
