package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// tierLadder maps lifetime points to a tier level, highest rung first.
// This is the canonical six-tier ladder for this deployment.
var tierLadder = []struct {
	min  int64
	tier int
}{
	{35000, 6},
	{20000, 5},
	{10000, 4},
	{5000, 3},
	{2000, 2},
}

// TierFor is pure: the tier is always recomputable from lifetime
// points, and users.current_tier is only ever a cache of this value.
func TierFor(totalPoints int64) int {
	for _, rung := range tierLadder {
		if totalPoints >= rung.min {
			return rung.tier
		}
	}
	return 1
}

// CurrentTier returns the user's tier, repairing the cached
// current_tier column when it has drifted. The repair triggers no
// other logic.
func (l *Ledger) CurrentTier(ctx context.Context, userID int64) (int, error) {
	var tier int
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		tier = TierFor(user.TotalPoints)
		if user.CurrentTier == tier {
			return nil
		}

		slog.Debug("Repairing stale tier cache",
			slog.Int64("user_id", userID),
			slog.Int("cached", user.CurrentTier),
			slog.Int("computed", tier))

		user.CurrentTier = tier
		user.UpdatedAt = time.Now()
		return tx.UpdateUserPoints(ctx, user)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to resolve tier: %w", err)
	}
	return tier, nil
}
