package progression

import (
	"context"

	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database/models"
)

// Store is the persistence surface the engine operates on. Every
// public engine operation runs inside RunInTx; the Store handed to the
// callback is transaction-scoped, and the *ForUpdate reads take row
// locks that serialize concurrent operations on the same rows.
type Store interface {
	// RunInTx executes fn in a single database transaction. fn's Store
	// is scoped to that transaction; any error rolls the whole
	// transaction back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Users
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserForUpdate(ctx context.Context, id int64) (*models.User, error)
	UpdateUserPoints(ctx context.Context, u *models.User) error
	CountRedemptions(ctx context.Context, userID int64) (int, error)

	// Quest progress
	GetOrCreateQuestProgress(ctx context.Context, userID, questID int64) (*models.UserQuestProgress, error)
	UpdateQuestProgress(ctx context.Context, p *models.UserQuestProgress) error
	CountCompletedQuests(ctx context.Context, userID int64) (int, error)

	// Skill progress
	GetOrCreateSkillProgress(ctx context.Context, userID, skillID int64) (*models.UserSkillProgress, error)
	UpdateSkillProgress(ctx context.Context, p *models.UserSkillProgress) error
	CountCompletedSkills(ctx context.Context, userID int64) (int, error)

	// Landmark state
	GetOrCreateLandmarkState(ctx context.Context, userID, landmarkID int64) (*models.UserLandmarkState, error)
	UpdateLandmarkState(ctx context.Context, s *models.UserLandmarkState) error
	CountCompletedLandmarks(ctx context.Context, userID int64) (int, error)

	// Badge state
	ListEarnedBadgeIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	AwardBadge(ctx context.Context, s *models.UserBadgeState) error

	// Reward redemptions
	GetRedemption(ctx context.Context, userID, rewardID int64) (*models.UserRewardRedemption, error)
	ListRedemptions(ctx context.Context, userID int64) ([]*models.UserRewardRedemption, error)
	// InsertRedemption returns errAlreadyRedeemed-compatible unique
	// violations via IsUniqueViolation on the underlying driver error.
	InsertRedemption(ctx context.Context, r *models.UserRewardRedemption) error
	IsUniqueViolation(err error) bool
	ArchiveReward(ctx context.Context, rewardID int64) error

	// Pair streaks
	GetOrCreatePairStreak(ctx context.Context, lowID, highID int64) (*models.PairStreak, error)
	UpdatePairStreak(ctx context.Context, ps *models.PairStreak) error
}

// CatalogSource hands out the current immutable catalog snapshot and
// refreshes it after admin catalog writes. *catalog.Service satisfies
// it.
type CatalogSource interface {
	Snapshot() *catalog.Snapshot
	Reload(ctx context.Context) error
}
