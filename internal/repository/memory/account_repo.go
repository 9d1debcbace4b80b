// Package memory implements the repositories on in-process maps.
// It backs tests and keeps the state-machine packages independent of
// persistence mechanics.
package memory

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
)

// AccountRepo is an in-memory AccountRepository keyed by normalized email.
type AccountRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*model.Account
}

// NewAccountRepo constructs an empty in-memory account repository.
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{byEmail: map[string]*model.Account{}}
}

// Create inserts a new account.
func (r *AccountRepo) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeEmail(a.Email)
	if _, exists := r.byEmail[key]; exists {
		return errs.ErrDuplicateEmail
	}
	cpy := *a
	cpy.Email = key
	r.byEmail[key] = &cpy
	return nil
}

// GetByEmail loads an account by email.
func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *a
	return &cpy, nil
}

// GetByID loads an account by ID.
func (r *AccountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byEmail {
		if a.ID == id {
			cpy := *a
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

// Update overwrites an existing account record.
func (r *AccountRepo) Update(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeEmail(a.Email)
	if _, ok := r.byEmail[key]; !ok {
		return errs.ErrNotFound
	}
	cpy := *a
	cpy.Email = key
	r.byEmail[key] = &cpy
	return nil
}

// All returns every registered account.
func (r *AccountRepo) All(_ context.Context) ([]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Account, 0, len(r.byEmail))
	for _, a := range r.byEmail {
		out = append(out, *a)
	}
	return out, nil
}
