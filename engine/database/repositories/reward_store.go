package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

func (s *EngineStore) GetRedemption(ctx context.Context, userID, rewardID int64) (*models.UserRewardRedemption, error) {
	redemption := new(models.UserRewardRedemption)
	err := s.db.NewSelect().
		Model(redemption).
		Where("user_id = ? AND reward_id = ?", userID, rewardID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return redemption, nil
}

func (s *EngineStore) ListRedemptions(ctx context.Context, userID int64) ([]*models.UserRewardRedemption, error) {
	var redemptions []*models.UserRewardRedemption
	err := s.db.NewSelect().
		Model(&redemptions).
		Where("user_id = ?", userID).
		Order("redeemed_at ASC").
		Scan(ctx)
	return redemptions, err
}

// InsertRedemption deliberately has no ON CONFLICT clause: the unique
// index on (user_id, reward_id) is the redemption serialization point,
// and callers map the violation to an already-redeemed result.
func (s *EngineStore) InsertRedemption(ctx context.Context, r *models.UserRewardRedemption) error {
	_, err := s.db.NewInsert().Model(r).Exec(ctx)
	return err
}

func (s *EngineStore) ArchiveReward(ctx context.Context, rewardID int64) error {
	_, err := s.db.NewUpdate().
		Model((*models.Reward)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", rewardID).
		Exec(ctx)
	return err
}
