package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type failingActivities struct {
	repository.ActivityRepository
	calls int
}

func (f *failingActivities) Append(context.Context, *domain.Activity) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecordSwallowsStoreFailures(t *testing.T) {
	store := &failingActivities{}
	dispatcher := events.NewInMemoryDispatcher()
	published := false
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		published = true
		return nil
	})

	recorder := NewActivityRecorder(store, dispatcher, clockwork.NewFakeClockAt(testEpoch), zap.NewNop(), nil)
	recorder.Record(context.Background(), "t-1", nil, domain.ActivityCreated, nil)

	if store.calls != 1 {
		t.Fatalf("append calls = %d, want 1", store.calls)
	}
	if published {
		t.Fatal("failed activities must not be published")
	}
}

func TestRecordSurvivesCancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ticket := createTicket(t, env, "cancel")

	var got events.Event
	env.dispatcher.Subscribe(events.EventTicketCommented, func(_ context.Context, e events.Event) error {
		got = e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.recorder.Record(ctx, ticket.ID, &env.agent.UserID, domain.ActivityCommented, map[string]any{"comment_id": "c-1"})

	activities, err := env.repos.Activities.ListByTicket(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(activities) != 2 || activities[1].Action != domain.ActivityCommented {
		t.Fatalf("activity dropped after cancellation: %+v", activities)
	}
	if got.TicketID != ticket.ID || got.Action != domain.ActivityCommented {
		t.Fatalf("unexpected published event: %+v", got)
	}
}
