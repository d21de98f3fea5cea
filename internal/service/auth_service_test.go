package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, "  New.User@Example.com ", "secret1", "New User")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.Email != "new.user@example.com" || registered.User.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", registered.User)
	}
	if registered.Token.Value == "" || !registered.Token.ExpiresAt.Equal(testEpoch.Add(time.Hour)) {
		t.Fatalf("unexpected token: %+v", registered.Token)
	}

	_, err = env.auth.Register(ctx, "new.user@example.com", "another1", "")
	derr := requireCode(t, err, apperrors.CodeEmailTaken)
	if derr.HTTPStatus != 409 {
		t.Fatalf("status = %d, want 409", derr.HTTPStatus)
	}

	loggedIn, err := env.auth.Login(ctx, "NEW.USER@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Fatal("login returned a different user")
	}

	for _, creds := range [][2]string{{"new.user@example.com", "wrong"}, {"ghost@example.com", "secret1"}, {"", ""}} {
		_, err := env.auth.Login(ctx, creds[0], creds[1])
		derr := requireCode(t, err, apperrors.CodeInvalidCredentials)
		if derr.HTTPStatus != 401 {
			t.Fatalf("status = %d, want 401", derr.HTTPStatus)
		}
	}

	me, err := env.auth.Me(ctx, domain.Identity{UserID: registered.User.ID})
	if err != nil || me.Email != registered.User.Email {
		t.Fatalf("me: %v %+v", err, me)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := [][2]string{
		{"not-an-email", "secret1"},
		{"Name <a@example.com>", "secret1"},
		{"a@example.com", "short"},
	}
	for _, c := range cases {
		_, err := env.auth.Register(context.Background(), c[0], c[1], "")
		requireCode(t, err, apperrors.CodeValidation)
	}
}
