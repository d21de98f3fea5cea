// Package sqlite implements the repositories on an embedded SQLite
// database through gorm. It backs local runs without Postgres and the
// test suite.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userModel{},
		&ticketModel{},
		&commentModel{},
		&activityModel{},
		&idempotencyModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// NewRepositories wires the gorm-backed implementations.
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Tickets:     NewTicketRepository(db),
		Comments:    NewCommentRepository(db),
		Activities:  NewActivityRepository(db),
		Idempotency: NewIdempotencyRepository(db),
		Users:       NewUserRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.Join(repository.ErrDuplicate, err)
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return errors.Join(repository.ErrInvalidReference, err)
	}
	return err
}
