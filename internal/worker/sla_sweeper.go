package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

const (
	DefaultSweepInterval  = time.Minute
	DefaultSweepBatchSize = 500
)

var errSweepPanic = errors.New("sla sweep panicked")

// SLASweeperConfig tunes the sweep loop.
type SLASweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// SLASweeper moves past-due tickets from SLA-pending to SLA-breached.
// Each transition is a conditional write, so overlapping sweeps cannot
// breach a ticket twice.
type SLASweeper struct {
	tickets  repository.TicketRepository
	recorder *service.ActivityRecorder
	clock    clockwork.Clock
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	batch    int

	// afterSweep observes every tick's result; tests hook it.
	afterSweep func(breached int, err error)
}

// NewSLASweeper builds a sweeper.
func NewSLASweeper(tickets repository.TicketRepository, recorder *service.ActivityRecorder, clock clockwork.Clock, logger *zap.Logger, metrics *observability.Metrics, cfg SLASweeperConfig) *SLASweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSweepBatchSize
	}
	return &SLASweeper{
		tickets:  tickets,
		recorder: recorder,
		clock:    clock,
		logger:   logger.With(zap.String("component", "sla_sweeper")),
		metrics:  metrics,
		interval: cfg.Interval,
		batch:    cfg.BatchSize,
	}
}

// Sweep runs one pass over at most one batch of candidates and returns
// how many tickets it transitioned. Tickets that fail are logged and left
// for the next pass.
func (s *SLASweeper) Sweep(ctx context.Context) (breached int, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveSweep(breached, s.clock.Since(start), err)
	}()

	now := start.UTC()
	candidates, err := s.tickets.ListBreachCandidates(ctx, now, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list breach candidates: %w", err)
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return breached, err
		}
		ticket, err := s.tickets.MarkBreached(ctx, candidate.ID, now)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Another sweep got there first.
				continue
			}
			s.logger.Error("failed to mark ticket breached",
				zap.String("ticket_id", candidate.ID),
				zap.Error(err),
			)
			continue
		}
		breached++

		due := dueString(ticket)
		s.logger.Info("ticket sla breached",
			zap.String("ticket_id", ticket.ID),
			zap.String("sla_due_at", due),
		)
		s.recorder.Record(ctx, ticket.ID, nil, domain.ActivitySLABreached, map[string]any{
			"sla_due_at": due,
		})
	}
	return breached, nil
}

// Run sweeps on every tick until ctx is cancelled. A failed or panicking
// sweep is logged and the loop keeps going.
func (s *SLASweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sla sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batch),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sla sweeper stopped")
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *SLASweeper) tick(ctx context.Context) {
	var (
		breached int
		err      error
	)
	defer func() {
		if r := recover(); r != nil {
			err = errSweepPanic
			s.metrics.ObserveSweep(0, 0, err)
			s.logger.Error("sla sweep panicked", zap.Any("panic", r))
		}
		if s.afterSweep != nil {
			s.afterSweep(breached, err)
		}
	}()

	breached, err = s.Sweep(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	if breached > 0 {
		s.logger.Info("sla sweep completed", zap.Int("breached", breached))
	}
}

func dueString(ticket *domain.Ticket) string {
	if ticket.SLADueAt == nil {
		return ""
	}
	return ticket.SLADueAt.UTC().Format(time.RFC3339)
}
