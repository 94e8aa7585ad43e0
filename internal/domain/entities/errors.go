package entities

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidInput is returned when user-supplied selections or amounts
	// are missing or non-positive. Recoverable: correct the input and retry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExcessiveInput is returned by the max-input guardrail when a trade
	// would consume too large a fraction of the input reserve.
	ErrExcessiveInput = errors.New("amount exceeds maximum fraction of reserve")

	// ErrRegistryUnavailable is returned when factory-level calls fail and
	// token discovery cannot proceed. The published token set is untouched.
	ErrRegistryUnavailable = errors.New("token registry unavailable")

	// ErrActionInProgress is returned when an action is attempted while
	// another of the same kind is in flight for the same account.
	ErrActionInProgress = errors.New("action already in progress")

	// ErrApprovalFailed is returned when an approval transaction reverts.
	ErrApprovalFailed = errors.New("approval transaction failed")

	// ErrSubmissionFailed is returned when a transaction could not be
	// broadcast to the chain.
	ErrSubmissionFailed = errors.New("transaction submission failed")

	// ErrTransactionReverted is returned when a submitted transaction's
	// receipt reports a non-success status.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// InvalidQuoteInputError reports a non-positive operand passed to the
// quote engine. Callers are expected to validate first; this surfacing
// to a user indicates a programming error upstream.
type InvalidQuoteInputError struct {
	Operand string
	Value   *big.Int
}

func (e *InvalidQuoteInputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("quote input %s must be positive, got nil", e.Operand)
	}
	return fmt.Sprintf("quote input %s must be positive, got %s", e.Operand, e.Value)
}

// RatioMismatchError reports add-liquidity amounts inconsistent with the
// pool's current price. SuggestedAmountB is the price-implied amount for
// the supplied AmountA; the caller shows it to the user instead of
// silently correcting. DeviationBps is capped at 10000: anything beyond
// 100% off is reported as 10000, never a wrapped value.
type RatioMismatchError struct {
	AmountA          *big.Int
	AmountB          *big.Int
	SuggestedAmountB *big.Int
	DeviationBps     uint64
	ToleranceBps     uint64
}

func (e *RatioMismatchError) Error() string {
	return fmt.Sprintf(
		"liquidity amounts deviate from pool price by %d bps (tolerance %d bps); suggested amountB %s",
		e.DeviationBps, e.ToleranceBps, e.SuggestedAmountB,
	)
}
