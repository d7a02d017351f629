package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hotwellkz/course-api/internal/domain"
)

// ErrInvalidAmount reports a caller contract violation: debit amounts
// must be positive integers. It is deliberately outside the domain
// taxonomy — a non-positive amount is a bug in the caller, not a
// collaborator failure.
var ErrInvalidAmount = errors.New("debit amount must be a positive integer")

// maxDebitAttempts bounds retries of the conditional write when a
// concurrent writer races the same profile record.
const maxDebitAttempts = 3

// Service is the token ledger: the only mutation path for the tokens
// balance.
type Service interface {
	// Debit atomically decrements the balance. Returns (false, nil)
	// when funds are insufficient or the profile does not exist —
	// both are normal "cannot proceed" outcomes, not errors.
	Debit(ctx context.Context, accountID string, amount int) (bool, error)
	// Balance returns the current profile, including the token count.
	Balance(ctx context.Context, accountID string) (*domain.Profile, error)
}

type profileStore interface {
	Debit(ctx context.Context, accountID string, amount int) (bool, error)
	Get(ctx context.Context, accountID string) (*domain.Profile, error)
}

type service struct {
	profiles profileStore
}

func NewService(profiles profileStore) Service {
	return &service{profiles: profiles}
}

func (s *service) Debit(ctx context.Context, accountID string, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	var lastErr error
	for attempt := 1; attempt <= maxDebitAttempts; attempt++ {
		ok, err := s.profiles.Debit(ctx, accountID, amount)
		if err == nil {
			return ok, nil
		}
		if !isTransientConflict(err) {
			return false, fmt.Errorf("debit: %w", domain.ErrUnknown)
		}
		lastErr = err
		slog.Warn("debit conflict, retrying", "account_id", accountID, "attempt", attempt, "err", err)
	}
	slog.Warn("debit retries exhausted", "account_id", accountID, "err", lastErr)
	return false, fmt.Errorf("debit retries exhausted: %w", domain.ErrUnknown)
}

func (s *service) Balance(ctx context.Context, accountID string) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load profile: %w", domain.ErrUnknown)
	}
	return p, nil
}

// isTransientConflict reports whether the store error is a race with a
// concurrent writer (or throttling) that the same conditional write
// may safely be retried for. The retried call carries the identical
// condition, so a retry can never double-debit.
func isTransientConflict(err error) bool {
	var conflict *types.TransactionConflictException
	if errors.As(err, &conflict) {
		return true
	}
	var throttled *types.ProvisionedThroughputExceededException
	return errors.As(err, &throttled)
}
