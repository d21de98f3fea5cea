package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures list parameters. Search is matched as a
// case-insensitive substring of title or description.
type TicketFilter struct {
	Search string
	Limit  int
	Offset int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateIfVersion applies patch only when the stored version equals
	// expected. A miss returns ErrVersionConflict whether or not the row exists.
	UpdateIfVersion(ctx context.Context, id string, expected int64, patch domain.TicketPatch, now time.Time) (*domain.Ticket, error)
	ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	// MarkBreached flips sla_breached for a ticket that is still pending and
	// past due. ErrNotFound means nothing transitioned.
	MarkBreached(ctx context.Context, id string, now time.Time) (*domain.Ticket, error)
}

const ticketColumns = `id, title, description, priority, status, assigned_to, created_by,
               created_at, updated_at, sla_due_at, sla_breached, version`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = NewID()
	}
	if ticket.Version == 0 {
		ticket.Version = domain.InitialTicketVersion
	}
	const query = `
        INSERT INTO tickets (id, title, description, priority, status, assigned_to, created_by,
                             created_at, updated_at, sla_due_at, sla_breached, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.CreatedBy,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.SLADueAt,
		ticket.SLABreached,
		ticket.Version,
	)
	return translatePgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translatePgError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+EscapeLike(strings.ToLower(search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(title) LIKE %s ESCAPE '\' OR LOWER(description) LIKE %s ESCAPE '\')`,
			placeholder, placeholder))
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateIfVersion(ctx context.Context, id string, expected int64, patch domain.TicketPatch, now time.Time) (*domain.Ticket, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.AssignedTo.Set {
		set("assigned_to", patch.AssignedTo.Value)
	}
	set("updated_at", now)
	sets = append(sets, "version=version+1")

	args = append(args, id, expected)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d AND version=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), ticketColumns)

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		err = translatePgError(err)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE sla_breached = FALSE AND sla_due_at IS NOT NULL AND sla_due_at <= $1
        ORDER BY sla_due_at ASC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkBreached(ctx context.Context, id string, now time.Time) (*domain.Ticket, error) {
	query := `UPDATE tickets
        SET sla_breached = TRUE, version = version + 1, updated_at = $2
        WHERE id = $1 AND sla_breached = FALSE AND sla_due_at IS NOT NULL AND sla_due_at <= $2
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, now))
	if err != nil {
		return nil, translatePgError(err)
	}
	return ticket, nil
}

// EscapeLike escapes LIKE wildcards so the term is matched literally
// under ESCAPE '\'.
func EscapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.SLADueAt,
		&ticket.SLABreached,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	normalizeTicketTimes(&ticket)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func normalizeTicketTimes(t *domain.Ticket) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.SLADueAt != nil {
		due := t.SLADueAt.UTC()
		t.SLADueAt = &due
	}
}
