package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

// Rewards redeems catalog items against the spendable balance. A
// redemption is at-most-once: the unique key on (user_id, reward_id)
// is the serialization point, and a lost race surfaces as "already
// redeemed" rather than a double debit.
type Rewards struct {
	store   Store
	catalog CatalogSource
}

func NewRewards(store Store, cat CatalogSource) *Rewards {
	return &Rewards{store: store, catalog: cat}
}

// RedeemResult reports the outcome of a redemption attempt.
type RedeemResult struct {
	Status          string
	AvailablePoints int64
	NewBadges       []*models.Badge
	Changed         bool
}

// RewardListing is one catalog reward with its per-user status.
type RewardListing struct {
	Reward *models.Reward
	Status string
}

// Redeem spends the reward's cost from the user's available balance
// and records the redemption, atomically. Redeeming twice reports
// RewardStatusRedeemed with an unchanged balance.
func (r *Rewards) Redeem(ctx context.Context, userID, rewardID int64) (*RedeemResult, error) {
	snap := r.catalog.Snapshot()
	reward, ok := snap.Rewards[rewardID]
	if !ok {
		return nil, fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
	}
	if reward.Cost <= 0 {
		return nil, fmt.Errorf("reward %d has cost %d: %w", rewardID, reward.Cost, ErrInvalidAmount)
	}

	var result *RedeemResult
	err := r.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		existing, err := tx.GetRedemption(ctx, userID, rewardID)
		if err != nil {
			return fmt.Errorf("failed to check redemption: %w", err)
		}
		if existing != nil {
			result = &RedeemResult{Status: models.RewardStatusRedeemed, AvailablePoints: user.AvailablePoints}
			return nil
		}

		// Opportunistic legacy backfill before rejecting: users from
		// the single-balance era may hold their points in total only.
		if user.AvailablePoints < reward.Cost && user.TotalPoints >= reward.Cost {
			if err := reconcileLegacyBalanceTx(ctx, tx, user); err != nil {
				return err
			}
		}

		if user.AvailablePoints < reward.Cost {
			return fmt.Errorf("reward %d costs %d, balance %d: %w",
				rewardID, reward.Cost, user.AvailablePoints, ErrInsufficientBalance)
		}

		redemption := &models.UserRewardRedemption{
			UserID:     userID,
			RewardID:   rewardID,
			RedeemedAt: time.Now(),
		}
		if err := tx.InsertRedemption(ctx, redemption); err != nil {
			if tx.IsUniqueViolation(err) {
				// Lost the race to a concurrent redeem; the other
				// transaction owns the debit.
				return errAlreadyRedeemed
			}
			return fmt.Errorf("failed to insert redemption: %w", err)
		}

		if err := debitTx(ctx, tx, user, reward.Cost); err != nil {
			return err
		}

		result = &RedeemResult{
			Status:          models.RewardStatusRedeemed,
			AvailablePoints: user.AvailablePoints,
			Changed:         true,
		}

		slog.Info("Reward redeemed",
			slog.Int64("user_id", userID),
			slog.Int64("reward_id", rewardID),
			slog.Int64("cost", reward.Cost),
			slog.Int64("available_points", user.AvailablePoints))

		result.NewBadges, err = evaluateBadgesTx(ctx, tx, snap, user)
		return err
	})
	if err != nil {
		if errors.Is(err, errAlreadyRedeemed) {
			return r.alreadyRedeemedResult(ctx, userID)
		}
		return nil, err
	}
	return result, nil
}

// alreadyRedeemedResult re-reads the balance after a lost insert race;
// the winning transaction has already debited it.
func (r *Rewards) alreadyRedeemedResult(ctx context.Context, userID int64) (*RedeemResult, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RedeemResult{Status: models.RewardStatusRedeemed, AvailablePoints: user.AvailablePoints}, nil
}

// Archive deactivates a reward so it drops out of listings. Redemption
// history is kept; nothing is deleted.
func (r *Rewards) Archive(ctx context.Context, rewardID int64) error {
	snap := r.catalog.Snapshot()
	if _, ok := snap.Rewards[rewardID]; !ok {
		return fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
	}

	if err := r.store.ArchiveReward(ctx, rewardID); err != nil {
		return fmt.Errorf("failed to archive reward: %w", err)
	}
	if err := r.catalog.Reload(ctx); err != nil {
		return err
	}

	slog.Info("Reward archived", slog.Int64("reward_id", rewardID))
	return nil
}

// ListForUser derives a status per active reward: redeemed beats
// available beats locked.
func (r *Rewards) ListForUser(ctx context.Context, userID int64) ([]RewardListing, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	redemptions, err := r.store.ListRedemptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	redeemed := make(map[int64]bool, len(redemptions))
	for _, red := range redemptions {
		redeemed[red.RewardID] = true
	}

	snap := r.catalog.Snapshot()
	listings := make([]RewardListing, 0, len(snap.ActiveRewards))
	for _, reward := range snap.ActiveRewards {
		listing := RewardListing{Reward: reward, Status: models.RewardStatusLocked}
		switch {
		case redeemed[reward.ID]:
			listing.Status = models.RewardStatusRedeemed
		case user.AvailablePoints >= reward.Cost:
			listing.Status = models.RewardStatusAvailable
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
