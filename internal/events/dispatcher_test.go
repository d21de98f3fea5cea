package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.TicketID)
		return errors.New("first failed")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		t.Fatal("handler for another type must not run")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	if err == nil {
		t.Fatal("expected handler error to be reported")
	}
	if len(calls) != 2 || calls[1] != "second:t1" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestSubscribeAllSeesEveryTypeAndPanicsAreContained(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		panic("boom")
	})
	d.SubscribeAll(func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("created: %v", err)
	}
	if err := d.Publish(context.Background(), Event{Type: EventTicketUpdated}); err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
	if len(seen) != 2 || seen[0] != EventTicketCreated || seen[1] != EventTicketUpdated {
		t.Fatalf("catch-all saw %v", seen)
	}
}

func TestEventTypeForAction(t *testing.T) {
	for _, action := range domain.ActivityActions {
		if EventTypeForAction(action) == "" {
			t.Fatalf("no event type for %s", action)
		}
	}
	if EventTypeForAction(domain.ActivitySLABreached) != EventTicketSLABreached {
		t.Fatal("sla_breached should map to ticket_sla_breached")
	}
}
