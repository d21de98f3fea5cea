package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// CommentRepository stores ticket comments in SQLite.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = repository.NewID()
	}
	row := commentModel{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: formatTime(comment.CreatedAt),
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var rows []commentModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	items := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.Comment{
			ID:        row.ID,
			TicketID:  row.TicketID,
			AuthorID:  row.AuthorID,
			Content:   row.Content,
			CreatedAt: parseTime(row.CreatedAt),
		})
	}
	return items, nil
}
