package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository"
)

// HistoryService records completed generations in the durable, capped log.
// The log is independent of the in-memory undo/redo stacks.
type HistoryService interface {
	// Record appends a completed generation to the account's log.
	Record(ctx context.Context, accountID uuid.UUID, original, transformed []byte, style string) (*model.GenerationResult, error)
	// List returns the account's log, newest first.
	List(ctx context.Context, accountID uuid.UUID) ([]model.GenerationResult, error)
	// Reopen returns one entry so the editing session can restart from it.
	Reopen(ctx context.Context, accountID, id uuid.UUID) (*model.GenerationResult, error)
}

// HistoryServiceImpl implements HistoryService over a HistoryRepository.
type HistoryServiceImpl struct {
	repo repository.HistoryRepository
	clk  clock.Clock
}

// NewHistoryService constructs HistoryService.
func NewHistoryService(repo repository.HistoryRepository, clk clock.Clock) *HistoryServiceImpl {
	return &HistoryServiceImpl{repo: repo, clk: clk}
}

// Record validates input and appends one entry; the repository evicts the
// oldest rows beyond its cap.
func (s *HistoryServiceImpl) Record(ctx context.Context, accountID uuid.UUID, original, transformed []byte, style string) (*model.GenerationResult, error) {
	if accountID == uuid.Nil {
		return nil, errors.New("validation: empty accountID")
	}
	if len(original) == 0 || len(transformed) == 0 {
		return nil, errors.New("validation: empty image payload")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rec := &model.GenerationResult{
		ID:          id,
		AccountID:   accountID,
		Original:    original,
		Transformed: transformed,
		Style:       style,
		CreatedAt:   s.clk.Now().UTC(),
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the account's entries, newest first.
func (s *HistoryServiceImpl) List(ctx context.Context, accountID uuid.UUID) ([]model.GenerationResult, error) {
	if accountID == uuid.Nil {
		return nil, errors.New("validation: empty accountID")
	}
	return s.repo.List(ctx, accountID)
}

// Reopen fetches one entry by id.
func (s *HistoryServiceImpl) Reopen(ctx context.Context, accountID, id uuid.UUID) (*model.GenerationResult, error) {
	if accountID == uuid.Nil || id == uuid.Nil {
		return nil, errors.New("validation: empty accountID/id")
	}
	return s.repo.Get(ctx, accountID, id)
}
