package progression

import "errors"

// Business-rule errors returned by engine operations. Callers classify
// with errors.Is; storage failures are wrapped and propagate as-is.
var (
	// ErrNotFound covers unknown users and unknown catalog ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidIncrement rejects advance calls with increment < 1.
	ErrInvalidIncrement = errors.New("increment must be at least 1")

	// ErrInvalidAmount rejects ledger credits/debits of zero or less.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAlreadyCompleted rejects completing a landmark twice.
	ErrAlreadyCompleted = errors.New("already completed")

	// ErrNotUnlocked rejects completing a landmark before unlocking it.
	ErrNotUnlocked = errors.New("landmark not unlocked")

	// ErrInsufficientPoints means lifetime points are below an unlock
	// threshold.
	ErrInsufficientPoints = errors.New("insufficient lifetime points")

	// ErrInsufficientBalance means the spendable balance cannot cover a
	// debit.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrencyConflict is transient; the operation is safe to
	// retry.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
)

// errAlreadyRedeemed is internal only: a lost redemption race surfaces
// to callers as a success-with-no-change result, never as an error.
var errAlreadyRedeemed = errors.New("already redeemed")
