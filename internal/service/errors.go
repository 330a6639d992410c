package service

import (
	"errors"
	"fmt"

	"pointledger/internal/infrastructure/lock"
	"pointledger/internal/repository"
)

// Errors returned by LedgerService. Callers match them with errors.Is; the
// HTTP layer maps each to a status code.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedKind     = errors.New("unsupported request kind")
	ErrRequestNotFound     = errors.New("request not found")
	ErrInvalidState        = errors.New("request is not pending")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnauthorized        = errors.New("operation requires admin role")
	ErrBusy                = errors.New("ledger busy, retry later")
)

// translate turns repository and lock errors into service errors and adds
// the operation name. Unknown errors pass through wrapped.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnsupportedKind),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrBusy):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, repository.ErrRequestNotFound):
		return fmt.Errorf("%s: %w", op, ErrRequestNotFound)
	case errors.Is(err, repository.ErrStatusInvalid):
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	case errors.Is(err, repository.ErrBalanceNotEnough):
		return fmt.Errorf("%s: %w", op, ErrInsufficientBalance)
	case errors.Is(err, repository.ErrOptimisticLock), errors.Is(err, lock.ErrLockFailed):
		return fmt.Errorf("%s: %w", op, ErrBusy)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
