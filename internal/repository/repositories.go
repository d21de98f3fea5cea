package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewID returns a UUIDv7. Ids minted by one process increase
// monotonically, so rows written in the same instant still order by id
// in the order they were created.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Repositories bundles every store the services depend on.
type Repositories struct {
	Tickets     TicketRepository
	Comments    CommentRepository
	Activities  ActivityRepository
	Idempotency IdempotencyRepository
	Users       UserRepository
	// Ping reports store health for readiness probes.
	Ping func(ctx context.Context) error
}

// NewPostgresRepositories wires the pgx-backed implementations.
func NewPostgresRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Tickets:     NewTicketRepository(pool),
		Comments:    NewCommentRepository(pool),
		Activities:  NewActivityRepository(pool),
		Idempotency: NewIdempotencyRepository(pool),
		Users:       NewUserRepository(pool),
		Ping:        pool.Ping,
	}
}
