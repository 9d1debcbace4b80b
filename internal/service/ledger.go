package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository"
)

// LedgerService manages the per-account credit balance.
//
// CheckAndDeduct is the only path by which a balance decreases. It is called
// exactly once per successfully completed generation and never for a failed
// one, so failed attempts do not consume credit.
type LedgerService interface {
	// Balance returns the current balance without mutation.
	Balance(ctx context.Context, accountID uuid.UUID) (int, error)
	// CheckAndDeduct consumes one credit and returns the new balance.
	// Unlimited accounts pass through unchanged. Returns
	// errs.ErrCreditExhausted when the balance is zero.
	CheckAndDeduct(ctx context.Context, accountID uuid.UUID) (int, error)
	// SetBalance sets an absolute plan and credit amount (checkout flow).
	SetBalance(ctx context.Context, accountID uuid.UUID, plan model.PlanTier, credits int) (*model.Account, error)
}

// LedgerServiceImpl implements LedgerService over an AccountRepository.
type LedgerServiceImpl struct {
	accounts repository.AccountRepository
}

// NewLedgerService constructs LedgerService.
func NewLedgerService(accounts repository.AccountRepository) *LedgerServiceImpl {
	return &LedgerServiceImpl{accounts: accounts}
}

// Balance returns the account's current balance.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (int, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return a.Credits, nil
}

// CheckAndDeduct decrements the balance by one, or passes through for
// unlimited accounts. The unlimited sentinel is never decremented.
func (s *LedgerServiceImpl) CheckAndDeduct(ctx context.Context, accountID uuid.UUID) (int, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if a.Unlimited() {
		return model.UnlimitedCredits, nil
	}
	if a.Credits <= 0 {
		return 0, errs.ErrCreditExhausted
	}
	a.Credits--
	if err := s.accounts.Update(ctx, a); err != nil {
		return 0, fmt.Errorf("deduct credit: %w", err)
	}
	return a.Credits, nil
}

// SetBalance sets an absolute plan and credit amount. It is not a relative
// adjustment; the checkout flow decides the final numbers.
func (s *LedgerServiceImpl) SetBalance(ctx context.Context, accountID uuid.UUID, plan model.PlanTier, credits int) (*model.Account, error) {
	if !model.ValidPlan(plan) {
		return nil, fmt.Errorf("validation: unknown plan %q", plan)
	}
	if credits < model.UnlimitedCredits {
		return nil, errors.New("validation: credits below unlimited sentinel")
	}
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.Plan = plan
	a.Credits = credits
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
