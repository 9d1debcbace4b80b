package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/model"
)

// DefaultHistoryCap is the number of history entries retained per account.
const DefaultHistoryCap = 50

// HistoryRepository stores the capped per-account generation log.
// Append evicts the oldest entries beyond the configured cap (FIFO).
type HistoryRepository interface {
	// Append stores a result and trims the account's log to the cap.
	Append(ctx context.Context, rec *model.GenerationResult) error
	// List returns the account's entries, newest first.
	List(ctx context.Context, accountID uuid.UUID) ([]model.GenerationResult, error)
	// Get returns one entry by id; errs.ErrNotFound if absent.
	Get(ctx context.Context, accountID, id uuid.UUID) (*model.GenerationResult, error)
}
