package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

// Ledger owns the two user balances: total_points (lifetime, never
// decreasing) and available_points (spendable). Completion payouts go
// through Credit; reward costs through Debit.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Credit adds amount to both balances in its own transaction. Callers
// inside an engine transaction use creditTx instead.
func (l *Ledger) Credit(ctx context.Context, userID, amount int64) (*models.User, error) {
	var user *models.User
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		u, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := creditTx(ctx, tx, u, amount); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Debit subtracts amount from the spendable balance in its own
// transaction. The lifetime total is untouched.
func (l *Ledger) Debit(ctx context.Context, userID, amount int64) (*models.User, error) {
	var user *models.User
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		u, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := debitTx(ctx, tx, u, amount); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ReconcileLegacyBalance backfills users created before the
// dual-balance model existed: if the spendable balance is zero, the
// lifetime total is positive and the user has never redeemed anything,
// the spendable balance becomes the lifetime total. Once any
// redemption exists the guard fails permanently, so the backfill is
// at-most-once in effect.
func (l *Ledger) ReconcileLegacyBalance(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		u, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := reconcileLegacyBalanceTx(ctx, tx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// creditTx mutates u and persists it inside the caller's transaction.
// u must have been read with GetUserForUpdate.
func creditTx(ctx context.Context, tx Store, u *models.User, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit of %d: %w", amount, ErrInvalidAmount)
	}

	u.TotalPoints += amount
	u.AvailablePoints += amount
	u.CurrentTier = TierFor(u.TotalPoints)
	u.UpdatedAt = time.Now()

	if err := tx.UpdateUserPoints(ctx, u); err != nil {
		return fmt.Errorf("failed to credit user: %w", err)
	}

	slog.Debug("Credited points",
		slog.Int64("user_id", u.ID),
		slog.Int64("amount", amount),
		slog.Int64("total_points", u.TotalPoints),
		slog.Int64("available_points", u.AvailablePoints))
	return nil
}

func debitTx(ctx context.Context, tx Store, u *models.User, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit of %d: %w", amount, ErrInvalidAmount)
	}
	if u.AvailablePoints < amount {
		return fmt.Errorf("debit of %d with balance %d: %w", amount, u.AvailablePoints, ErrInsufficientBalance)
	}

	u.AvailablePoints -= amount
	u.UpdatedAt = time.Now()

	if err := tx.UpdateUserPoints(ctx, u); err != nil {
		return fmt.Errorf("failed to debit user: %w", err)
	}

	slog.Debug("Debited points",
		slog.Int64("user_id", u.ID),
		slog.Int64("amount", amount),
		slog.Int64("available_points", u.AvailablePoints))
	return nil
}

func reconcileLegacyBalanceTx(ctx context.Context, tx Store, u *models.User) error {
	if u.AvailablePoints != 0 || u.TotalPoints <= 0 {
		return nil
	}

	redemptions, err := tx.CountRedemptions(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("failed to count redemptions: %w", err)
	}
	if redemptions > 0 {
		return nil
	}

	u.AvailablePoints = u.TotalPoints
	u.UpdatedAt = time.Now()
	if err := tx.UpdateUserPoints(ctx, u); err != nil {
		return fmt.Errorf("failed to backfill legacy balance: %w", err)
	}

	slog.Info("Backfilled legacy balance",
		slog.Int64("user_id", u.ID),
		slog.Int64("available_points", u.AvailablePoints))
	return nil
}
