package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/duospark/progression/engine/database/models"
)

// Quest progress

func (s *EngineStore) GetOrCreateQuestProgress(ctx context.Context, userID, questID int64) (*models.UserQuestProgress, error) {
	row := new(models.UserQuestProgress)
	err := s.db.NewSelect().
		Model(row).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	row = &models.UserQuestProgress{
		UserID:    userID,
		QuestID:   questID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// DO NOTHING keeps a concurrent first-touch from duplicating the
	// row; the re-select below then locks whichever insert won.
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, quest_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model(row).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *EngineStore) UpdateQuestProgress(ctx context.Context, p *models.UserQuestProgress) error {
	p.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(p).
		Column("progress", "completed", "completed_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *EngineStore) CountCompletedQuests(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().
		Model((*models.UserQuestProgress)(nil)).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(ctx)
}

// Skill progress

func (s *EngineStore) GetOrCreateSkillProgress(ctx context.Context, userID, skillID int64) (*models.UserSkillProgress, error) {
	row := new(models.UserSkillProgress)
	err := s.db.NewSelect().
		Model(row).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	row = &models.UserSkillProgress{
		UserID:    userID,
		SkillID:   skillID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, skill_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.NewSelect().
		Model(row).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *EngineStore) UpdateSkillProgress(ctx context.Context, p *models.UserSkillProgress) error {
	p.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(p).
		Column("progress", "completed", "completed_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *EngineStore) CountCompletedSkills(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().
		Model((*models.UserSkillProgress)(nil)).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(ctx)
}
