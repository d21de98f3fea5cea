package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict is returned when a conditional write matched no row.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("repository: duplicate")
	// ErrInvalidReference is returned on foreign key violations.
	ErrInvalidReference = errors.New("repository: invalid reference")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translatePgError maps pgx errors onto the repository sentinels.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(ErrDuplicate, err)
		case pgForeignKeyViolation:
			return errors.Join(ErrInvalidReference, err)
		}
	}
	return err
}
