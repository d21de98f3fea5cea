package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// IdempotencyRepository persists first responses keyed by (scope, key).
type IdempotencyRepository interface {
	Get(ctx context.Context, scope, key string) (*domain.IdempotencyRecord, error)
	// Create returns ErrDuplicate when (scope, key) already exists.
	Create(ctx context.Context, record *domain.IdempotencyRecord) error
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository returns a Postgres-backed implementation.
func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) Get(ctx context.Context, scope, key string) (*domain.IdempotencyRecord, error) {
	const query = `
        SELECT id, scope, key, user_id, method, route, request_hash, status_code, content_type, response, created_at
        FROM idempotency_keys WHERE scope=$1 AND key=$2`
	var record domain.IdempotencyRecord
	if err := r.pool.QueryRow(ctx, query, scope, key).Scan(
		&record.ID,
		&record.Scope,
		&record.Key,
		&record.UserID,
		&record.Method,
		&record.Route,
		&record.RequestHash,
		&record.StatusCode,
		&record.ContentType,
		&record.Response,
		&record.CreatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	if record.ID == "" {
		record.ID = NewID()
	}
	const query = `
        INSERT INTO idempotency_keys (id, scope, key, user_id, method, route, request_hash,
                                      status_code, content_type, response, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Scope,
		record.Key,
		record.UserID,
		record.Method,
		record.Route,
		record.RequestHash,
		record.StatusCode,
		record.ContentType,
		record.Response,
		record.CreatedAt,
	)
	return translatePgError(err)
}
