package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// IdempotencyRepository stores replayable responses keyed by (scope, key).
type IdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository instantiates repository.
func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(ctx context.Context, scope, key string) (*domain.IdempotencyRecord, error) {
	var row idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return &domain.IdempotencyRecord{
		ID:          row.ID,
		Scope:       row.Scope,
		Key:         row.Key,
		UserID:      row.UserID,
		Method:      row.Method,
		Route:       row.Route,
		RequestHash: row.RequestHash,
		StatusCode:  row.StatusCode,
		ContentType: row.ContentType,
		Response:    row.Response,
		CreatedAt:   parseTime(row.CreatedAt),
	}, nil
}

func (r *IdempotencyRepository) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	if record.ID == "" {
		record.ID = repository.NewID()
	}
	row := idempotencyModel{
		ID:          record.ID,
		Scope:       record.Scope,
		Key:         record.Key,
		UserID:      record.UserID,
		Method:      record.Method,
		Route:       record.Route,
		RequestHash: record.RequestHash,
		StatusCode:  record.StatusCode,
		ContentType: record.ContentType,
		Response:    record.Response,
		CreatedAt:   formatTime(record.CreatedAt),
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}
