package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

func (s *EngineStore) GetOrCreatePairStreak(ctx context.Context, lowID, highID int64) (*models.PairStreak, error) {
	pair := new(models.PairStreak)
	err := s.db.NewSelect().
		Model(pair).
		Where("user_low_id = ? AND user_high_id = ?", lowID, highID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	pair = &models.PairStreak{
		UserLowID:  lowID,
		UserHighID: highID,
		Stage:      1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.NewInsert().
		Model(pair).
		On("CONFLICT (user_low_id, user_high_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model(pair).
		Where("user_low_id = ? AND user_high_id = ?", lowID, highID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *EngineStore) UpdatePairStreak(ctx context.Context, ps *models.PairStreak) error {
	ps.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(ps).
		Column("streak_count", "longest_streak", "last_streak_date", "stage", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}
