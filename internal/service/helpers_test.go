package service

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var testEpoch = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	repos      *repository.Repositories
	clock      clockwork.FakeClock
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	recorder   *ActivityRecorder
	controller *ConcurrencyController
	tickets    *TicketService
	cache      *IdempotencyCache
	auth       *AuthService
	agent      domain.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := testutil.NewStore(t)
	clock := clockwork.NewFakeClockAt(testEpoch)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	recorder := NewActivityRecorder(repos.Activities, dispatcher, clock, logger, metrics)
	controller := NewConcurrencyController(repos.Tickets, clock, metrics)
	tokens := auth.NewTokenManager("test-secret", 60, clock)

	agent := testutil.SeedUser(t, repos, "agent@example.com", domain.RoleAgent)

	return &testEnv{
		repos:      repos,
		clock:      clock,
		metrics:    metrics,
		dispatcher: dispatcher,
		recorder:   recorder,
		controller: controller,
		tickets: NewTicketService(TicketDependencies{
			Repos:      repos,
			Controller: controller,
			Recorder:   recorder,
			Clock:      clock,
		}),
		cache: NewIdempotencyCache(repos.Idempotency, clock, logger, metrics),
		auth:  NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, repos.Users, tokens, clock),
		agent: domain.Identity{UserID: agent.ID, Role: agent.Role, Email: agent.Email},
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var derr *apperrors.DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DomainError %s, got %v", code, err)
	}
	if derr.Code != code {
		t.Fatalf("code = %s, want %s (%v)", derr.Code, code, err)
	}
	return derr
}

func ptr[T any](v T) *T {
	return &v
}
