package usecase_test

import (
	"testing"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user, err := f.auth.CreateUser(f.ctx, usecase.NewUser{Email: "Owner@Example.com", Password: "long-enough", Role: domain.RoleOwner})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "owner@example.com" || user.PasswordHash == "long-enough" {
		t.Fatalf("unexpected user %+v", user)
	}

	_, err = f.auth.Login(f.ctx, "owner@example.com", "wrong-password", "10.0.0.2")
	expectKind(t, err, domain.ErrUnauthorized)
	_, err = f.auth.Login(f.ctx, "nobody@example.com", "long-enough", "10.0.0.2")
	expectKind(t, err, domain.ErrUnauthorized)

	res, err := f.auth.Login(f.ctx, " OWNER@example.com ", "long-enough", "10.0.0.2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.User.ID != user.ID || !res.ExpiresAt.After(f.now) {
		t.Fatalf("unexpected login result %+v", res)
	}
	if !hasAction(f.auditActions(), domain.AuditUserLogin) {
		t.Fatal("expected USER_LOGIN audit")
	}
}

func TestCreateUserValidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.CreateUser(f.ctx, usecase.NewUser{Email: "short@example.com", Password: "short"})
	expectKind(t, err, domain.ErrValidation)
	_, err = f.auth.CreateUser(f.ctx, usecase.NewUser{Email: "x@example.com", Password: "long-enough", Role: "ROOT"})
	expectKind(t, err, domain.ErrValidation)

	viewer, err := f.auth.CreateUser(f.ctx, usecase.NewUser{Email: "v@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if viewer.Role != domain.RoleViewer {
		t.Fatalf("expected default VIEWER role, got %s", viewer.Role)
	}
	_, err = f.auth.CreateUser(f.ctx, usecase.NewUser{Email: "V@example.com", Password: "long-enough"})
	expectKind(t, err, domain.ErrConflict)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		if err := f.auth.EnsureAdmin(f.ctx, "admin@example.com", "admin-password"); err != nil {
			t.Fatalf("ensure admin: %v", err)
		}
	}
	users, err := f.auth.ListUsers(f.ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].Role != domain.RoleAdmin {
		t.Fatalf("expected a single admin, got %+v", users)
	}
	if err := f.auth.EnsureAdmin(f.ctx, "", ""); err != nil {
		t.Fatalf("empty bootstrap config must be a no-op: %v", err)
	}
}
