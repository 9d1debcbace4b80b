package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository/memory"
	"github.com/brianking74/Property-Stage/internal/session"
)

func newIdentity(t *testing.T) (*IdentityServiceImpl, *memory.AccountRepo, *session.MemStore) {
	t.Helper()
	accounts := memory.NewAccountRepo()
	sessions := &session.MemStore{}
	clk := clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewIdentityService(accounts, sessions, clk), accounts, sessions
}

func TestSignupDefaults(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, "Jane.Doe@Example.COM", "", "hunter22")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if a.Email != "jane.doe@example.com" {
		t.Errorf("email not normalized: %q", a.Email)
	}
	if a.Name != "jane.doe" {
		t.Errorf("name should default to the email local part, got %q", a.Name)
	}
	if a.Plan != model.PlanFree {
		t.Errorf("plan = %q, want FREE", a.Plan)
	}
	if a.Credits != model.SignupCredits {
		t.Errorf("credits = %d, want %d", a.Credits, model.SignupCredits)
	}
	if a.IsAdmin {
		t.Error("fresh signup must not be admin")
	}
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "jane@example.com", "Jane", "pw"); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := svc.Signup(ctx, "JANE@example.com", "Other", "pw2")
	if !errors.Is(err, errs.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "jane@example.com", "Jane", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	t.Run("case-insensitive email", func(t *testing.T) {
		a, err := svc.Login(ctx, "  JANE@Example.com ", "secret1")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if a.Email != "jane@example.com" {
			t.Errorf("email = %q", a.Email)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.Login(ctx, "jane@example.com", "nope")
		if !errors.Is(err, errs.ErrWrongSecret) {
			t.Fatalf("err = %v, want ErrWrongSecret", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "pw")
		if !errors.Is(err, errs.ErrAccountNotFound) {
			t.Fatalf("err = %v, want ErrAccountNotFound", err)
		}
	})
}

func TestEstablishAndRestore(t *testing.T) {
	svc, accounts, _ := newIdentity(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, "jane@example.com", "Jane", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Establish(ctx, a.ID); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	// The store is authoritative: credit changes land in the restored session.
	a.Credits = 1
	if err := accounts.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	sess, err := svc.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sess.Credits != 1 {
		t.Errorf("restored credits = %d, want 1", sess.Credits)
	}
	if sess.AccountID != a.ID {
		t.Errorf("restored account = %v, want %v", sess.AccountID, a.ID)
	}
}

func TestRestoreClearsStaleToken(t *testing.T) {
	svc, _, sessions := newIdentity(t)
	ctx := context.Background()

	if err := sessions.Save("ghost@example.com"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Restore(ctx); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := sessions.Load(); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("stale token should be cleared, Load err = %v", err)
	}
}

func TestLogoutKeepsAccount(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, "jane@example.com", "Jane", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Establish(ctx, a.ID); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Restore(ctx); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("restore after logout: %v", err)
	}
	// Logging back in still works, the account survived.
	if _, err := svc.Login(ctx, "jane@example.com", "pw"); err != nil {
		t.Fatalf("login after logout: %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	svc, accounts, _ := newIdentity(t)
	ctx := context.Background()

	if err := svc.SeedAdmin(ctx); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	a, err := accounts.GetByEmail(ctx, AdminEmail)
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if !a.IsAdmin {
		t.Error("seed account must be admin")
	}
	if a.Plan != model.PlanManaged {
		t.Errorf("plan = %q, want MANAGED", a.Plan)
	}
	if a.Credits != model.UnlimitedCredits {
		t.Errorf("credits = %d, want unlimited sentinel", a.Credits)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !a.JoinedAt.Equal(want) {
		t.Errorf("joined = %v, want %v", a.JoinedAt, want)
	}

	// Idempotent: a second seed does not duplicate or reset.
	if err := svc.SeedAdmin(ctx); err != nil {
		t.Fatalf("second SeedAdmin: %v", err)
	}
	all, err := svc.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("accounts = %d, want 1", len(all))
	}
}

func TestUpdateProfileImage(t *testing.T) {
	svc, _, _ := newIdentity(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, "jane@example.com", "Jane", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	got, err := svc.UpdateProfileImage(ctx, a.ID, []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("UpdateProfileImage: %v", err)
	}
	if len(got.ProfileImage) != 2 {
		t.Errorf("image not stored")
	}
}
