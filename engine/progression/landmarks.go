package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

// Landmarks is the point-gated unlock ladder. Unlocking is gated on
// lifetime points only, never on the spendable balance; completion
// pays the landmark's points_value exactly once.
type Landmarks struct {
	store   Store
	catalog CatalogSource
}

func NewLandmarks(store Store, cat CatalogSource) *Landmarks {
	return &Landmarks{store: store, catalog: cat}
}

// LandmarkResult reports the outcome of an unlock or complete call.
type LandmarkResult struct {
	Unlocked      bool
	Completed     bool
	PointsAwarded int64
	NewBadges     []*models.Badge
	Changed       bool
}

// Unlock opens a landmark once the user's lifetime points reach
// (ordinal+1)*1000. Unlocking an already-unlocked landmark is a no-op
// success.
func (lm *Landmarks) Unlock(ctx context.Context, userID, landmarkID int64) (*LandmarkResult, error) {
	snap := lm.catalog.Snapshot()
	landmark, ok := snap.Landmarks[landmarkID]
	if !ok {
		return nil, fmt.Errorf("landmark %d: %w", landmarkID, ErrNotFound)
	}
	threshold := snap.LandmarkThreshold(landmark)

	var result *LandmarkResult
	err := lm.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		state, err := tx.GetOrCreateLandmarkState(ctx, userID, landmarkID)
		if err != nil {
			return fmt.Errorf("failed to load landmark state: %w", err)
		}

		result = &LandmarkResult{Unlocked: state.Unlocked, Completed: state.Completed}
		if state.Unlocked {
			return nil
		}

		if user.TotalPoints < threshold {
			return fmt.Errorf("landmark %d needs %d lifetime points, user has %d: %w",
				landmarkID, threshold, user.TotalPoints, ErrInsufficientPoints)
		}

		state.Unlocked = true
		now := time.Now()
		state.UnlockedAt = &now
		state.UpdatedAt = now
		if err := tx.UpdateLandmarkState(ctx, state); err != nil {
			return fmt.Errorf("failed to unlock landmark: %w", err)
		}

		result.Unlocked = true
		result.Changed = true

		slog.Info("Landmark unlocked",
			slog.Int64("user_id", userID),
			slog.Int64("landmark_id", landmarkID),
			slog.Int64("threshold", threshold))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete finishes an unlocked landmark and credits its payout.
// Completing before unlocking fails with ErrNotUnlocked; completing
// twice fails with ErrAlreadyCompleted.
func (lm *Landmarks) Complete(ctx context.Context, userID, landmarkID int64) (*LandmarkResult, error) {
	snap := lm.catalog.Snapshot()
	landmark, ok := snap.Landmarks[landmarkID]
	if !ok {
		return nil, fmt.Errorf("landmark %d: %w", landmarkID, ErrNotFound)
	}

	var result *LandmarkResult
	err := lm.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		state, err := tx.GetOrCreateLandmarkState(ctx, userID, landmarkID)
		if err != nil {
			return fmt.Errorf("failed to load landmark state: %w", err)
		}

		if !state.Unlocked {
			return fmt.Errorf("landmark %d: %w", landmarkID, ErrNotUnlocked)
		}
		if state.Completed {
			return fmt.Errorf("landmark %d: %w", landmarkID, ErrAlreadyCompleted)
		}

		state.Completed = true
		now := time.Now()
		state.CompletedAt = &now
		state.UpdatedAt = now
		if err := tx.UpdateLandmarkState(ctx, state); err != nil {
			return fmt.Errorf("failed to complete landmark: %w", err)
		}

		result = &LandmarkResult{Unlocked: true, Completed: true, Changed: true}

		if landmark.PointsValue > 0 {
			if err := creditTx(ctx, tx, user, landmark.PointsValue); err != nil {
				return err
			}
			result.PointsAwarded = landmark.PointsValue
		}

		slog.Info("Landmark completed",
			slog.Int64("user_id", userID),
			slog.Int64("landmark_id", landmarkID),
			slog.Int64("payout", landmark.PointsValue))

		result.NewBadges, err = evaluateBadgesTx(ctx, tx, snap, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
