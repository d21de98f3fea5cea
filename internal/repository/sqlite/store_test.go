package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func setupRepositories(t *testing.T) *repository.Repositories {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "store.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepositories(db)
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTicket(title string, createdAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		Title:       title,
		Description: "description of " + title,
		Priority:    domain.TicketPriorityNormal,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   "00000000-0000-0000-0000-000000000001",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestTicketCreateAndGet(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	due := baseTime.Add(time.Hour)
	ticket := newTicket("printer on fire", baseTime)
	ticket.SLADueAt = &due
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID == "" || ticket.Version != domain.InitialTicketVersion {
		t.Fatalf("expected id and initial version, got %q v%d", ticket.ID, ticket.Version)
	}

	got, err := repos.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != ticket.Title || !got.CreatedAt.Equal(baseTime) || got.SLADueAt == nil || !got.SLADueAt.Equal(due) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := repos.Tickets.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketUpdateIfVersion(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	ticket := newTicket("vpn down", baseTime)
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	status := domain.TicketStatusInProgress
	assignee := "00000000-0000-0000-0000-000000000002"
	later := baseTime.Add(time.Minute)
	updated, err := repos.Tickets.UpdateIfVersion(ctx, ticket.ID, 1, domain.TicketPatch{
		Status:     &status,
		AssignedTo: domain.NullableString{Set: true, Value: &assignee},
	}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 || updated.Status != status || updated.AssignedTo == nil || *updated.AssignedTo != assignee {
		t.Fatalf("unexpected ticket after update: %+v", updated)
	}
	if updated.Title != ticket.Title || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	if _, err := repos.Tickets.UpdateIfVersion(ctx, ticket.ID, 1, domain.TicketPatch{Status: &status}, later); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale version, got %v", err)
	}

	unassigned, err := repos.Tickets.UpdateIfVersion(ctx, ticket.ID, 2, domain.TicketPatch{
		AssignedTo: domain.NullableString{Set: true},
	}, later)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if unassigned.AssignedTo != nil || unassigned.Version != 3 {
		t.Fatalf("expected explicit null to unassign, got %+v", unassigned)
	}
}

func TestTicketListOrderingAndSearch(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	titles := []string{"Alpha", "beta 100%", "Gamma", "delta_x", "deltaY"}
	for i, title := range titles {
		if err := repos.Tickets.Create(ctx, newTicket(title, baseTime.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	all, err := repos.Tickets.List(ctx, repository.TicketFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(titles) || all[0].Title != "deltaY" || all[len(all)-1].Title != "Alpha" {
		t.Fatalf("expected newest first, got %v", ticketTitles(all))
	}

	cases := []struct {
		search string
		want   []string
	}{
		{search: "ALPHA", want: []string{"Alpha"}},
		{search: "100%", want: []string{"beta 100%"}},
		{search: "%", want: []string{"beta 100%"}},
		{search: "delta_", want: []string{"delta_x"}},
		{search: "delta", want: []string{"deltaY", "delta_x"}},
	}
	for _, tc := range cases {
		got, err := repos.Tickets.List(ctx, repository.TicketFilter{Search: tc.search, Limit: 10})
		if err != nil {
			t.Fatalf("list %q: %v", tc.search, err)
		}
		if fmt.Sprint(ticketTitles(got)) != fmt.Sprint(tc.want) {
			t.Fatalf("search %q = %v, want %v", tc.search, ticketTitles(got), tc.want)
		}
	}

	page, err := repos.Tickets.List(ctx, repository.TicketFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].Title != "Alpha" {
		t.Fatalf("unexpected last page: %v", ticketTitles(page))
	}
}

func TestBreachCandidatesAndMarkBreached(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	now := baseTime.Add(2 * time.Hour)

	pastDue := baseTime.Add(time.Hour)
	futureDue := now.Add(time.Hour)

	overdue := newTicket("overdue", baseTime)
	overdue.SLADueAt = &pastDue
	upcoming := newTicket("upcoming", baseTime)
	upcoming.SLADueAt = &futureDue
	noSLA := newTicket("no sla", baseTime)
	for _, tk := range []*domain.Ticket{overdue, upcoming, noSLA} {
		if err := repos.Tickets.Create(ctx, tk); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	candidates, err := repos.Tickets.ListBreachCandidates(ctx, now, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != overdue.ID {
		t.Fatalf("unexpected candidates: %v", ticketTitles(candidates))
	}

	breached, err := repos.Tickets.MarkBreached(ctx, overdue.ID, now)
	if err != nil {
		t.Fatalf("mark breached: %v", err)
	}
	if !breached.SLABreached || breached.Version != 2 {
		t.Fatalf("unexpected breached ticket: %+v", breached)
	}

	if _, err := repos.Tickets.MarkBreached(ctx, overdue.ID, now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second transition should be a no-op, got %v", err)
	}
	if _, err := repos.Tickets.MarkBreached(ctx, upcoming.ID, now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("future deadline must not transition, got %v", err)
	}
}

func TestCommentsAndActivitiesAreOrdered(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	ticket := newTicket("ordering", baseTime)
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 2; i >= 0; i-- {
		comment := &domain.Comment{
			TicketID:  ticket.ID,
			AuthorID:  ticket.CreatedBy,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	comments, err := repos.Comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 3 || comments[0].Content != "comment 0" || comments[2].Content != "comment 2" {
		t.Fatalf("comments not ascending: %+v", comments)
	}

	actor := ticket.CreatedBy
	if err := repos.Activities.Append(ctx, &domain.Activity{
		TicketID:  ticket.ID,
		ActorID:   &actor,
		Action:    domain.ActivityUpdated,
		Metadata:  map[string]any{"fields_changed": []string{"status"}, "version": int64(2)},
		CreatedAt: baseTime.Add(time.Second),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repos.Activities.Append(ctx, &domain.Activity{
		TicketID:  ticket.ID,
		Action:    domain.ActivityCreated,
		Metadata:  map[string]any{"priority": "normal"},
		CreatedAt: baseTime,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	activities, err := repos.Activities.ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 2 || activities[0].Action != domain.ActivityCreated || activities[1].Action != domain.ActivityUpdated {
		t.Fatalf("activities not ascending: %+v", activities)
	}
	if activities[0].ActorID != nil {
		t.Fatalf("expected nil actor, got %v", *activities[0].ActorID)
	}
	if fmt.Sprint(activities[1].Metadata["version"]) != "2" {
		t.Fatalf("metadata not preserved: %v", activities[1].Metadata)
	}
}

func TestIdempotencyUniquePerScope(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	record := func(scope string) *domain.IdempotencyRecord {
		return &domain.IdempotencyRecord{
			Scope:       scope,
			Key:         "key-1",
			Method:      "POST",
			Route:       "/tickets",
			RequestHash: "abc",
			StatusCode:  201,
			ContentType: "application/json",
			Response:    []byte(`{"ticket":{}}`),
			CreatedAt:   baseTime,
		}
	}

	if err := repos.Idempotency.Create(ctx, record("user-a")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Idempotency.Create(ctx, record("user-b")); err != nil {
		t.Fatalf("same key under another scope should be allowed: %v", err)
	}
	if err := repos.Idempotency.Create(ctx, record("user-a")); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := repos.Idempotency.Get(ctx, "user-a", "key-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Response) != `{"ticket":{}}` || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := repos.Idempotency.Get(ctx, "user-c", "key-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserEmailUnique(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", PasswordHash: "x", Role: domain.RoleUser, CreatedAt: baseTime}
	if err := repos.Users.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &domain.User{Email: "a@example.com", PasswordHash: "y", Role: domain.RoleUser, CreatedAt: baseTime}
	if err := repos.Users.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := repos.Users.GetByEmail(ctx, "a@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by email: %v %+v", err, got)
	}
	if err := repos.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func ticketTitles(items []domain.Ticket) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	return titles
}

func TestSameInstantRowsKeepInsertionOrder(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	ticket := newTicket("same instant", baseTime)
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	actions := []domain.ActivityAction{
		domain.ActivityCreated,
		domain.ActivityCommented,
		domain.ActivityUpdated,
		domain.ActivityCommented,
		domain.ActivityUpdated,
		domain.ActivitySLABreached,
	}
	for i, action := range actions {
		if err := repos.Activities.Append(ctx, &domain.Activity{
			TicketID:  ticket.ID,
			Action:    action,
			Metadata:  map[string]any{"seq": i},
			CreatedAt: baseTime,
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if err := repos.Comments.Create(ctx, &domain.Comment{
			TicketID:  ticket.ID,
			AuthorID:  ticket.CreatedBy,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: baseTime,
		}); err != nil {
			t.Fatalf("comment %d: %v", i, err)
		}
	}

	activities, err := repos.Activities.ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != len(actions) {
		t.Fatalf("activities = %d, want %d", len(activities), len(actions))
	}
	for i, activity := range activities {
		if fmt.Sprint(activity.Metadata["seq"]) != fmt.Sprint(i) || activity.Action != actions[i] {
			t.Fatalf("activity %d out of order: %+v", i, activity)
		}
	}

	comments, err := repos.Comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	for i, comment := range comments {
		if comment.Content != fmt.Sprintf("comment %d", i) {
			t.Fatalf("comment %d out of order: %q", i, comment.Content)
		}
	}
}

func TestSearchFoldsNonASCIICase(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	ticket := newTicket("Écran cassé", baseTime)
	ticket.Description = "Le moniteur ÉTEINT"
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Tickets.Create(ctx, newTicket("Keyboard", baseTime.Add(time.Second))); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, search := range []string{"Écran", "écran", "ÉCRAN", "cassé", "CASSÉ", "éteint"} {
		got, err := repos.Tickets.List(ctx, repository.TicketFilter{Search: search, Limit: 10})
		if err != nil {
			t.Fatalf("list %q: %v", search, err)
		}
		if len(got) != 1 || got[0].ID != ticket.ID {
			t.Fatalf("search %q = %v, want the Écran ticket", search, ticketTitles(got))
		}
	}

	title := "Ordinateur éteint"
	if _, err := repos.Tickets.UpdateIfVersion(ctx, ticket.ID, 1, domain.TicketPatch{Title: &title}, baseTime.Add(time.Minute)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repos.Tickets.List(ctx, repository.TicketFilter{Search: "ORDINATEUR", Limit: 10})
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if len(got) != 1 || got[0].Title != title {
		t.Fatalf("search after update = %v", ticketTitles(got))
	}
	got, err = repos.Tickets.List(ctx, repository.TicketFilter{Search: "écran", Limit: 10})
	if err != nil {
		t.Fatalf("list old title: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("old title still matches: %v", ticketTitles(got))
	}
}
