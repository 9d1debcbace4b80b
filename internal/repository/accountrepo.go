// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/model"
)

// AccountRepository provides access to registered accounts.
// Implementations key accounts by the normalized email form and normalize
// every lookup the same way.
type AccountRepository interface {
	// Create inserts a new account; errs.ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, a *model.Account) error
	// GetByEmail loads an account by email (normalized internally).
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// Update overwrites an existing account record in place.
	Update(ctx context.Context, a *model.Account) error
	// All returns every registered account (admin dashboard backing query).
	All(ctx context.Context) ([]model.Account, error)
}
