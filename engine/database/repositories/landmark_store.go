package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

func (s *EngineStore) GetOrCreateLandmarkState(ctx context.Context, userID, landmarkID int64) (*models.UserLandmarkState, error) {
	state := new(models.UserLandmarkState)
	err := s.db.NewSelect().
		Model(state).
		Where("user_id = ? AND landmark_id = ?", userID, landmarkID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	state = &models.UserLandmarkState{
		UserID:     userID,
		LandmarkID: landmarkID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.NewInsert().
		Model(state).
		On("CONFLICT (user_id, landmark_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model(state).
		Where("user_id = ? AND landmark_id = ?", userID, landmarkID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *EngineStore) UpdateLandmarkState(ctx context.Context, state *models.UserLandmarkState) error {
	state.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(state).
		Column("unlocked", "completed", "unlocked_at", "completed_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *EngineStore) CountCompletedLandmarks(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().
		Model((*models.UserLandmarkState)(nil)).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(ctx)
}
