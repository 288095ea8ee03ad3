package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database/models"
)

// Badges reconciles badge state against a user's current metrics. It
// is invoked after every mutating engine action and is safe to call
// redundantly: evaluation only ever flips earned false -> true, so a
// second call with no intervening state change awards nothing.
type Badges struct {
	store   Store
	catalog CatalogSource
}

func NewBadges(store Store, cat CatalogSource) *Badges {
	return &Badges{store: store, catalog: cat}
}

// Evaluate recomputes the user's metrics and awards any badge whose
// requirement they now meet. Returns the newly earned badges, oldest
// catalog order first.
func (b *Badges) Evaluate(ctx context.Context, userID int64) ([]*models.Badge, error) {
	var newlyEarned []*models.Badge
	err := b.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		newlyEarned, err = evaluateBadgesTx(ctx, tx, b.catalog.Snapshot(), user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate badges: %w", err)
	}
	return newlyEarned, nil
}

type badgeMetrics struct {
	points             int64
	tier               int
	questsCompleted    int
	skillsCompleted    int
	landmarksCompleted int
}

// evaluateBadgesTx runs the award scan inside the caller's
// transaction so badge awards commit atomically with the action that
// triggered them.
func evaluateBadgesTx(ctx context.Context, tx Store, snap *catalog.Snapshot, user *models.User) ([]*models.Badge, error) {
	earned, err := tx.ListEarnedBadgeIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned badges: %w", err)
	}

	metrics, err := collectMetrics(ctx, tx, user)
	if err != nil {
		return nil, err
	}

	var newlyEarned []*models.Badge
	for _, badge := range snap.Badges {
		if earned[badge.ID] {
			continue
		}

		req := snap.RequirementFor(badge)
		metric, ok := metricValue(metrics, req.Type)
		if !ok {
			slog.Warn("Skipping badge with unknown requirement type",
				slog.Int64("badge_id", badge.ID),
				slog.String("requirement_type", badge.RequirementType))
			continue
		}

		if metric < int64(req.Threshold) {
			continue
		}

		now := time.Now()
		state := &models.UserBadgeState{
			UserID:    user.ID,
			BadgeID:   badge.ID,
			Earned:    true,
			EarnedAt:  &now,
			CreatedAt: now,
		}
		if err := tx.AwardBadge(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to award badge %d: %w", badge.ID, err)
		}
		newlyEarned = append(newlyEarned, badge)

		slog.Info("Badge earned",
			slog.Int64("user_id", user.ID),
			slog.Int64("badge_id", badge.ID),
			slog.String("badge", badge.Name))
	}

	return newlyEarned, nil
}

func collectMetrics(ctx context.Context, tx Store, user *models.User) (badgeMetrics, error) {
	m := badgeMetrics{
		points: user.TotalPoints,
		tier:   TierFor(user.TotalPoints),
	}

	var err error
	if m.questsCompleted, err = tx.CountCompletedQuests(ctx, user.ID); err != nil {
		return m, fmt.Errorf("failed to count completed quests: %w", err)
	}
	if m.skillsCompleted, err = tx.CountCompletedSkills(ctx, user.ID); err != nil {
		return m, fmt.Errorf("failed to count completed skills: %w", err)
	}
	if m.landmarksCompleted, err = tx.CountCompletedLandmarks(ctx, user.ID); err != nil {
		return m, fmt.Errorf("failed to count completed landmarks: %w", err)
	}
	return m, nil
}

func metricValue(m badgeMetrics, requirementType string) (int64, bool) {
	switch requirementType {
	case models.RequirementTypePoints:
		return m.points, true
	case models.RequirementTypeTier:
		return int64(m.tier), true
	case models.RequirementTypeQuests:
		return int64(m.questsCompleted), true
	case models.RequirementTypeSkills:
		return int64(m.skillsCompleted), true
	case models.RequirementTypeLandmarks:
		return int64(m.landmarksCompleted), true
	default:
		return 0, false
	}
}
