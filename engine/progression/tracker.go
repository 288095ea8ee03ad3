package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

// Tracker advances capped progress counters for quests and skills.
// Counters never decrease and never exceed their cap; the completion
// payout is credited exactly once, on the call that reaches the cap.
type Tracker struct {
	store   Store
	catalog CatalogSource
}

func NewTracker(store Store, cat CatalogSource) *Tracker {
	return &Tracker{store: store, catalog: cat}
}

// AdvanceResult reports the outcome of a single advance call.
type AdvanceResult struct {
	Progress  int
	Cap       int
	Completed bool

	// AlreadyCompleted means the row was complete before this call and
	// nothing changed. Internal callers treat it as a no-op; HTTP
	// callers may surface it as a client error.
	AlreadyCompleted bool

	// PointsAwarded is 0 except on the call that completes the row.
	PointsAwarded int64

	NewBadges []*models.Badge
	Changed   bool
}

// AdvanceQuest increments a user's progress on a quest.
func (t *Tracker) AdvanceQuest(ctx context.Context, userID, questID int64, increment int) (*AdvanceResult, error) {
	if increment < 1 {
		return nil, fmt.Errorf("increment %d: %w", increment, ErrInvalidIncrement)
	}

	snap := t.catalog.Snapshot()
	quest, ok := snap.Quests[questID]
	if !ok {
		return nil, fmt.Errorf("quest %d: %w", questID, ErrNotFound)
	}

	var result *AdvanceResult
	err := t.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		row, err := tx.GetOrCreateQuestProgress(ctx, userID, questID)
		if err != nil {
			return fmt.Errorf("failed to load quest progress: %w", err)
		}

		result = &AdvanceResult{Progress: row.Progress, Cap: quest.TotalRequired, Completed: row.Completed}
		if row.Completed {
			result.AlreadyCompleted = true
			return nil
		}

		newProgress, completedNow := applyAdvance(row.Progress, quest.TotalRequired, increment)
		row.Progress = newProgress
		row.UpdatedAt = time.Now()
		if completedNow {
			row.Completed = true
			now := time.Now()
			row.CompletedAt = &now
		}
		if err := tx.UpdateQuestProgress(ctx, row); err != nil {
			return fmt.Errorf("failed to update quest progress: %w", err)
		}

		result.Progress = row.Progress
		result.Completed = row.Completed
		result.Changed = true

		if completedNow {
			if quest.Reward > 0 {
				if err := creditTx(ctx, tx, user, quest.Reward); err != nil {
					return err
				}
				result.PointsAwarded = quest.Reward
			}

			slog.Info("Quest completed",
				slog.Int64("user_id", userID),
				slog.Int64("quest_id", questID),
				slog.Int64("reward", quest.Reward))
		}

		result.NewBadges, err = evaluateBadgesTx(ctx, tx, snap, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdvanceSkill increments a user's progress on a skill. A skill's
// ParentID is not enforced here; prerequisites are display metadata.
func (t *Tracker) AdvanceSkill(ctx context.Context, userID, skillID int64, increment int) (*AdvanceResult, error) {
	if increment < 1 {
		return nil, fmt.Errorf("increment %d: %w", increment, ErrInvalidIncrement)
	}

	snap := t.catalog.Snapshot()
	skill, ok := snap.Skills[skillID]
	if !ok {
		return nil, fmt.Errorf("skill %d: %w", skillID, ErrNotFound)
	}

	var result *AdvanceResult
	err := t.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		row, err := tx.GetOrCreateSkillProgress(ctx, userID, skillID)
		if err != nil {
			return fmt.Errorf("failed to load skill progress: %w", err)
		}

		result = &AdvanceResult{Progress: row.Progress, Cap: skill.RequiredCount, Completed: row.Completed}
		if row.Completed {
			result.AlreadyCompleted = true
			return nil
		}

		newProgress, completedNow := applyAdvance(row.Progress, skill.RequiredCount, increment)
		row.Progress = newProgress
		row.UpdatedAt = time.Now()
		if completedNow {
			row.Completed = true
			now := time.Now()
			row.CompletedAt = &now
		}
		if err := tx.UpdateSkillProgress(ctx, row); err != nil {
			return fmt.Errorf("failed to update skill progress: %w", err)
		}

		result.Progress = row.Progress
		result.Completed = row.Completed
		result.Changed = true

		if completedNow {
			if skill.RewardPoints > 0 {
				if err := creditTx(ctx, tx, user, skill.RewardPoints); err != nil {
					return err
				}
				result.PointsAwarded = skill.RewardPoints
			}

			slog.Info("Skill completed",
				slog.Int64("user_id", userID),
				slog.Int64("skill_id", skillID),
				slog.Int64("reward", skill.RewardPoints))
		}

		result.NewBadges, err = evaluateBadgesTx(ctx, tx, snap, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyAdvance clamps progress at cap and reports whether this call
// crossed it.
func applyAdvance(progress, cap, increment int) (int, bool) {
	next := progress + increment
	if next > cap {
		next = cap
	}
	return next, next >= cap
}
