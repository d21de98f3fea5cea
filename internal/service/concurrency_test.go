package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func createTicket(t *testing.T, env *testEnv, title string) *domain.Ticket {
	t.Helper()
	ticket, err := env.tickets.Create(context.Background(), env.agent, TicketCreateInput{Title: title})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestAttemptUpdateRequiresVersion(t *testing.T) {
	env := newTestEnv(t)
	ticket := createTicket(t, env, "no version")

	_, err := env.controller.AttemptUpdate(context.Background(), ticket.ID, nil, domain.TicketPatch{Title: ptr("x")})
	derr := requireCode(t, err, apperrors.CodeMissingVersion)
	if derr.HTTPStatus != 400 {
		t.Fatalf("status = %d, want 400", derr.HTTPStatus)
	}
}

func TestAttemptUpdateVersionCountsOnlySuccesses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, "counting")

	const updates = 5
	for i := 0; i < updates; i++ {
		current := ticket.Version
		stale := current - 1
		if _, err := env.controller.AttemptUpdate(ctx, ticket.ID, &stale, domain.TicketPatch{Title: ptr("stale")}); err == nil {
			t.Fatal("stale update must fail")
		}
		updated, err := env.controller.AttemptUpdate(ctx, ticket.ID, &current, domain.TicketPatch{Description: ptr("rev")})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if updated.Version != current+1 {
			t.Fatalf("version = %d, want %d", updated.Version, current+1)
		}
		ticket = updated
	}
	if ticket.Version != domain.InitialTicketVersion+updates {
		t.Fatalf("final version = %d, want %d", ticket.Version, domain.InitialTicketVersion+updates)
	}
	if ticket.Title != "counting" {
		t.Fatalf("stale updates leaked into the row: %q", ticket.Title)
	}
}

func TestAttemptUpdateConcurrentSameVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, "race")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	expected := ticket.Version
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := domain.TicketStatusClosed
			_, err := env.controller.AttemptUpdate(ctx, ticket.ID, &expected, domain.TicketPatch{Status: &status})
			mu.Lock()
			defer mu.Unlock()
			var derr *apperrors.DomainError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &derr) && derr.Code == apperrors.CodeConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("successes=%d conflicts=%d, want 1 and %d", successes, conflicts, workers-1)
	}
	stored, err := env.repos.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Version != expected+1 {
		t.Fatalf("final version = %d, want %d", stored.Version, expected+1)
	}
}

func TestAttemptUpdateConflictCarriesCurrentVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, "details")

	v1 := ticket.Version
	if _, err := env.controller.AttemptUpdate(ctx, ticket.ID, &v1, domain.TicketPatch{Title: ptr("first")}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := env.controller.AttemptUpdate(ctx, ticket.ID, &v1, domain.TicketPatch{Title: ptr("second")})
	derr := requireCode(t, err, apperrors.CodeConflict)
	if derr.HTTPStatus != 409 || derr.Details["current_version"] != int64(2) {
		t.Fatalf("unexpected conflict: %+v", derr)
	}
}

func TestAttemptUpdateNotFound(t *testing.T) {
	env := newTestEnv(t)
	v := int64(1)
	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := env.controller.AttemptUpdate(context.Background(), id, &v, domain.TicketPatch{Title: ptr("x")})
		requireCode(t, err, apperrors.CodeNotFound)
	}
}

func TestValidatePatch(t *testing.T) {
	bogus := domain.TicketStatus("archived")
	cases := []struct {
		name  string
		patch domain.TicketPatch
		ok    bool
	}{
		{name: "empty", patch: domain.TicketPatch{}, ok: true},
		{name: "blank title", patch: domain.TicketPatch{Title: ptr("   ")}},
		{name: "bad status", patch: domain.TicketPatch{Status: &bogus}},
		{name: "bad assignee", patch: domain.TicketPatch{AssignedTo: domain.NullableString{Set: true, Value: ptr("bob")}}},
		{name: "unassign", patch: domain.TicketPatch{AssignedTo: domain.NullableString{Set: true}}, ok: true},
		{name: "assign", patch: domain.TicketPatch{AssignedTo: domain.NullableString{Set: true, Value: ptr(uuid.NewString())}}, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePatch(&tc.patch)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				requireCode(t, err, apperrors.CodeValidation)
			}
		})
	}
}

type failingTickets struct {
	repository.TicketRepository
}

func (failingTickets) UpdateIfVersion(context.Context, string, int64, domain.TicketPatch, time.Time) (*domain.Ticket, error) {
	return nil, errors.New("connection reset")
}

func TestAttemptUpdateWrapsStoreFailures(t *testing.T) {
	controller := NewConcurrencyController(failingTickets{}, nil, nil)
	v := int64(1)
	_, err := controller.AttemptUpdate(context.Background(), uuid.NewString(), &v, domain.TicketPatch{Title: ptr("x")})
	if err == nil {
		t.Fatal("expected store failure")
	}
	if derr := apperrors.ToDomainError(err); derr.Code != apperrors.CodeInternal || derr.HTTPStatus != 500 {
		t.Fatalf("store failure must map to 500, got %+v", derr)
	}
}
