package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// UserRepository stores accounts in SQLite.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = repository.NewID()
	}
	row := userModel{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Name:         user.Name,
		CreatedAt:    formatTime(user.CreatedAt),
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, "email = ?", email)
}

func (r *UserRepository) fetchSingle(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var row userModel
	if err := r.db.WithContext(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		Name:         row.Name,
		CreatedAt:    parseTime(row.CreatedAt),
	}, nil
}
