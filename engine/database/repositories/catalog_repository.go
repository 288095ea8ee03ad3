package repositories

import (
	"context"

	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database/models"
	"github.com/uptrace/bun"
)

type catalogRepository struct {
	db *bun.DB
}

func NewCatalogRepository(db *bun.DB) catalog.Repository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListQuests(ctx context.Context) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Order("id ASC").
		Scan(ctx)
	return quests, err
}

func (r *catalogRepository) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	var skills []*models.Skill
	err := r.db.NewSelect().
		Model(&skills).
		Order("id ASC").
		Scan(ctx)
	return skills, err
}

func (r *catalogRepository) ListLandmarks(ctx context.Context) ([]*models.Landmark, error) {
	var landmarks []*models.Landmark
	err := r.db.NewSelect().
		Model(&landmarks).
		Order("position ASC").
		Scan(ctx)
	return landmarks, err
}

func (r *catalogRepository) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := r.db.NewSelect().
		Model(&badges).
		Order("id ASC").
		Scan(ctx)
	return badges, err
}

func (r *catalogRepository) ListRewards(ctx context.Context) ([]*models.Reward, error) {
	var rewards []*models.Reward
	err := r.db.NewSelect().
		Model(&rewards).
		Order("cost ASC", "id ASC").
		Scan(ctx)
	return rewards, err
}
