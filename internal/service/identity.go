// Package service contains application services for identity, credits,
// and the persistent generation history.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/clock"
	pkgcrypto "github.com/brianking74/Property-Stage/internal/crypto"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository"
	"github.com/brianking74/Property-Stage/internal/session"
)

// Seeded administrator account. Created at startup when absent.
const (
	AdminEmail  = "admin@propertystage.hk"
	AdminName   = "System Admin"
	adminSecret = "admin" // local demo store only; hashed like any other secret
)

var adminJoined = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// IdentityService defines account registration, authentication, and profile
// operations. Login alone does not establish a session; the two-factor
// machine calls Establish after the code is verified.
type IdentityService interface {
	// Signup creates a FREE account with the default credit grant.
	Signup(ctx context.Context, email, name, secret string) (*model.Account, error)
	// Login checks credentials and returns the matching account.
	Login(ctx context.Context, email, secret string) (*model.Account, error)
	// Establish commits the account as the current session.
	Establish(ctx context.Context, accountID uuid.UUID) (model.Session, error)
	// Restore re-reads the last session's account from the store.
	Restore(ctx context.Context) (model.Session, error)
	// Logout clears the current session without touching the store.
	Logout() error
	// UpdateProfileImage replaces the account's profile image.
	UpdateProfileImage(ctx context.Context, accountID uuid.UUID, image []byte) (*model.Account, error)
	// ListAccounts returns all accounts (admin dashboard).
	ListAccounts(ctx context.Context) ([]model.Account, error)
}

// IdentityServiceImpl implements IdentityService over an AccountRepository
// and a session store.
type IdentityServiceImpl struct {
	accounts repository.AccountRepository
	sessions session.Store
	clk      clock.Clock
}

// NewIdentityService constructs IdentityService with required dependencies.
func NewIdentityService(accounts repository.AccountRepository, sessions session.Store, clk clock.Clock) *IdentityServiceImpl {
	return &IdentityServiceImpl{accounts: accounts, sessions: sessions, clk: clk}
}

// SeedAdmin creates the administrator account if it does not exist yet.
func (s *IdentityServiceImpl) SeedAdmin(ctx context.Context) error {
	if _, err := s.accounts.GetByEmail(ctx, AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	a, err := s.newAccount(AdminEmail, AdminName, adminSecret)
	if err != nil {
		return err
	}
	a.Plan = model.PlanManaged
	a.Credits = model.UnlimitedCredits
	a.JoinedAt = adminJoined
	a.IsAdmin = true
	if err := s.accounts.Create(ctx, a); err != nil && !errors.Is(err, errs.ErrDuplicateEmail) {
		return err
	}
	return nil
}

// Signup registers a new account with the default FREE plan and credit grant.
func (s *IdentityServiceImpl) Signup(ctx context.Context, email, name, secret string) (*model.Account, error) {
	email = model.NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, errors.New("validation: empty email/secret")
	}
	if name == "" {
		// same default as the signup form: email local part
		name, _, _ = strings.Cut(email, "@")
	}
	a, err := s.newAccount(email, name, secret)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, errs.ErrDuplicateEmail) {
			return nil, errs.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// Login checks credentials against the store.
func (s *IdentityServiceImpl) Login(ctx context.Context, email, secret string) (*model.Account, error) {
	a, err := s.accounts.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrAccountNotFound
		}
		return nil, err
	}
	if !pkgcrypto.VerifySecret([]byte(secret), a.SecretSalt, a.SecretHash) {
		return nil, errs.ErrWrongSecret
	}
	return a, nil
}

// Establish records the account as the current session and returns the
// redacted projection.
func (s *IdentityServiceImpl) Establish(ctx context.Context, accountID uuid.UUID) (model.Session, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.sessions.Save(a.Email); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}
	return a.Redact(), nil
}

// Restore re-reads the saved session's account. The account store, not the
// cached session record, is authoritative: balances and plan changes made by
// another client or an admin are picked up here.
func (s *IdentityServiceImpl) Restore(ctx context.Context) (model.Session, error) {
	email, err := s.sessions.Load()
	if err != nil {
		return model.Session{}, err
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// stale session record; drop it
			_ = s.sessions.Clear()
		}
		return model.Session{}, errs.ErrNotFound
	}
	return a.Redact(), nil
}

// Logout clears the current session only.
func (s *IdentityServiceImpl) Logout() error { return s.sessions.Clear() }

// UpdateProfileImage performs a read-modify-write on the account record.
func (s *IdentityServiceImpl) UpdateProfileImage(ctx context.Context, accountID uuid.UUID, image []byte) (*model.Account, error) {
	if accountID == uuid.Nil {
		return nil, errors.New("validation: empty accountID")
	}
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.ProfileImage = append([]byte(nil), image...)
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAccounts returns every registered account.
func (s *IdentityServiceImpl) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accounts.All(ctx)
}

func (s *IdentityServiceImpl) newAccount(email, name, secret string) (*model.Account, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		return nil, err
	}
	return &model.Account{
		ID:         id,
		Email:      model.NormalizeEmail(email),
		Name:       name,
		SecretHash: pkgcrypto.HashSecret([]byte(secret), salt),
		SecretSalt: salt,
		Plan:       model.PlanFree,
		Credits:    model.SignupCredits,
		JoinedAt:   s.clk.Now().UTC(),
	}, nil
}
