package repositories

import (
	"context"

	"github.com/duospark/progression/engine/database/models"
)

func (s *EngineStore) ListEarnedBadgeIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.db.NewSelect().
		Model((*models.UserBadgeState)(nil)).
		Column("badge_id").
		Where("user_id = ? AND earned = ?", userID, true).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	earned := make(map[int64]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

// AwardBadge is idempotent: a concurrent award of the same badge hits
// the (user_id, badge_id) unique index and is dropped.
func (s *EngineStore) AwardBadge(ctx context.Context, state *models.UserBadgeState) error {
	_, err := s.db.NewInsert().
		Model(state).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	return err
}
