package memory

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
)

// HistoryRepo is an in-memory HistoryRepository with FIFO eviction at cap.
type HistoryRepo struct {
	mu  sync.RWMutex
	cap int
	// per account, oldest first
	logs map[uuid.UUID][]model.GenerationResult
}

// NewHistoryRepo constructs an in-memory history repository with the given cap.
func NewHistoryRepo(capacity int) *HistoryRepo {
	if capacity <= 0 {
		capacity = 50
	}
	return &HistoryRepo{cap: capacity, logs: map[uuid.UUID][]model.GenerationResult{}}
}

// Append stores rec and evicts the oldest entries beyond the cap.
func (r *HistoryRepo) Append(_ context.Context, rec *model.GenerationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := append(r.logs[rec.AccountID], *rec)
	if excess := len(log) - r.cap; excess > 0 {
		log = log[excess:]
	}
	r.logs[rec.AccountID] = log
	return nil
}

// List returns the account's entries, newest first.
func (r *HistoryRepo) List(_ context.Context, accountID uuid.UUID) ([]model.GenerationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log := r.logs[accountID]
	out := make([]model.GenerationResult, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, log[i])
	}
	return out, nil
}

// Get returns one entry by id.
func (r *HistoryRepo) Get(_ context.Context, accountID, id uuid.UUID) (*model.GenerationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.logs[accountID] {
		if rec.ID == id {
			cpy := rec
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}
