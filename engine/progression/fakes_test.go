package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database/models"
)

// errFakeUnique stands in for the driver's unique_violation.
var errFakeUnique = errors.New("unique violation")

type pairKey struct{ a, b int64 }

var _ Store = (*fakeStore)(nil)

// fakeStore is an in-memory Store. RunInTx runs the callback directly;
// these tests exercise business rules, not rollback mechanics.
type fakeStore struct {
	users         map[int64]*models.User
	questProgress map[pairKey]*models.UserQuestProgress
	skillProgress map[pairKey]*models.UserSkillProgress
	landmarkState map[pairKey]*models.UserLandmarkState
	badgeState    map[pairKey]*models.UserBadgeState
	redemptions   map[pairKey]*models.UserRewardRedemption
	streaks       map[pairKey]*models.PairStreak
	archived      map[int64]bool
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[int64]*models.User),
		questProgress: make(map[pairKey]*models.UserQuestProgress),
		skillProgress: make(map[pairKey]*models.UserSkillProgress),
		landmarkState: make(map[pairKey]*models.UserLandmarkState),
		badgeState:    make(map[pairKey]*models.UserBadgeState),
		redemptions:   make(map[pairKey]*models.UserRewardRedemption),
		streaks:       make(map[pairKey]*models.PairStreak),
		archived:      make(map[int64]bool),
	}
}

func (f *fakeStore) addUser(id, total, available int64) *models.User {
	u := &models.User{
		ID:              id,
		Username:        fmt.Sprintf("user-%d", id),
		TotalPoints:     total,
		AvailablePoints: available,
		CurrentTier:     TierFor(total),
	}
	f.users[id] = u
	return u
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) IsUniqueViolation(err error) bool {
	return errors.Is(err, errFakeUnique)
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (f *fakeStore) GetUserForUpdate(ctx context.Context, id int64) (*models.User, error) {
	return f.GetUser(ctx, id)
}

func (f *fakeStore) UpdateUserPoints(_ context.Context, u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) CountRedemptions(_ context.Context, userID int64) (int, error) {
	count := 0
	for key := range f.redemptions {
		if key.a == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetOrCreateQuestProgress(_ context.Context, userID, questID int64) (*models.UserQuestProgress, error) {
	key := pairKey{userID, questID}
	if row, ok := f.questProgress[key]; ok {
		return row, nil
	}
	row := &models.UserQuestProgress{ID: f.id(), UserID: userID, QuestID: questID}
	f.questProgress[key] = row
	return row, nil
}

func (f *fakeStore) UpdateQuestProgress(_ context.Context, p *models.UserQuestProgress) error {
	f.questProgress[pairKey{p.UserID, p.QuestID}] = p
	return nil
}

func (f *fakeStore) CountCompletedQuests(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, row := range f.questProgress {
		if row.UserID == userID && row.Completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetOrCreateSkillProgress(_ context.Context, userID, skillID int64) (*models.UserSkillProgress, error) {
	key := pairKey{userID, skillID}
	if row, ok := f.skillProgress[key]; ok {
		return row, nil
	}
	row := &models.UserSkillProgress{ID: f.id(), UserID: userID, SkillID: skillID}
	f.skillProgress[key] = row
	return row, nil
}

func (f *fakeStore) UpdateSkillProgress(_ context.Context, p *models.UserSkillProgress) error {
	f.skillProgress[pairKey{p.UserID, p.SkillID}] = p
	return nil
}

func (f *fakeStore) CountCompletedSkills(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, row := range f.skillProgress {
		if row.UserID == userID && row.Completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetOrCreateLandmarkState(_ context.Context, userID, landmarkID int64) (*models.UserLandmarkState, error) {
	key := pairKey{userID, landmarkID}
	if state, ok := f.landmarkState[key]; ok {
		return state, nil
	}
	state := &models.UserLandmarkState{ID: f.id(), UserID: userID, LandmarkID: landmarkID}
	f.landmarkState[key] = state
	return state, nil
}

func (f *fakeStore) UpdateLandmarkState(_ context.Context, s *models.UserLandmarkState) error {
	f.landmarkState[pairKey{s.UserID, s.LandmarkID}] = s
	return nil
}

func (f *fakeStore) CountCompletedLandmarks(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, state := range f.landmarkState {
		if state.UserID == userID && state.Completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListEarnedBadgeIDs(_ context.Context, userID int64) (map[int64]bool, error) {
	earned := make(map[int64]bool)
	for _, state := range f.badgeState {
		if state.UserID == userID && state.Earned {
			earned[state.BadgeID] = true
		}
	}
	return earned, nil
}

func (f *fakeStore) AwardBadge(_ context.Context, state *models.UserBadgeState) error {
	key := pairKey{state.UserID, state.BadgeID}
	if _, ok := f.badgeState[key]; ok {
		return nil
	}
	state.ID = f.id()
	f.badgeState[key] = state
	return nil
}

func (f *fakeStore) GetRedemption(_ context.Context, userID, rewardID int64) (*models.UserRewardRedemption, error) {
	return f.redemptions[pairKey{userID, rewardID}], nil
}

func (f *fakeStore) ListRedemptions(_ context.Context, userID int64) ([]*models.UserRewardRedemption, error) {
	var out []*models.UserRewardRedemption
	for _, r := range f.redemptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertRedemption(_ context.Context, r *models.UserRewardRedemption) error {
	key := pairKey{r.UserID, r.RewardID}
	if _, ok := f.redemptions[key]; ok {
		return errFakeUnique
	}
	r.ID = f.id()
	f.redemptions[key] = r
	return nil
}

func (f *fakeStore) ArchiveReward(_ context.Context, rewardID int64) error {
	f.archived[rewardID] = true
	return nil
}

func (f *fakeStore) GetOrCreatePairStreak(_ context.Context, lowID, highID int64) (*models.PairStreak, error) {
	key := pairKey{lowID, highID}
	if pair, ok := f.streaks[key]; ok {
		return pair, nil
	}
	pair := &models.PairStreak{ID: f.id(), UserLowID: lowID, UserHighID: highID, Stage: 1}
	f.streaks[key] = pair
	return pair, nil
}

func (f *fakeStore) UpdatePairStreak(_ context.Context, ps *models.PairStreak) error {
	f.streaks[pairKey{ps.UserLowID, ps.UserHighID}] = ps
	return nil
}

// fakeCatalog wraps a hand-built snapshot.
type fakeCatalog struct {
	snap *catalog.Snapshot
}

func (c *fakeCatalog) Snapshot() *catalog.Snapshot { return c.snap }

func (c *fakeCatalog) Reload(context.Context) error { return nil }

// snapshotBuilder assembles test snapshots without a repository.
func testSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Version:   1,
		LoadedAt:  time.Now(),
		Quests:    make(map[int64]*models.Quest),
		Skills:    make(map[int64]*models.Skill),
		Landmarks: make(map[int64]*models.Landmark),
		Rewards:   make(map[int64]*models.Reward),
	}
}

func addQuest(snap *catalog.Snapshot, id int64, cap int, reward int64) *models.Quest {
	q := &models.Quest{ID: id, Name: fmt.Sprintf("quest-%d", id), Reward: reward, TotalRequired: cap}
	snap.Quests[id] = q
	return q
}

func addSkill(snap *catalog.Snapshot, id int64, required int, reward int64) *models.Skill {
	s := &models.Skill{ID: id, Name: fmt.Sprintf("skill-%d", id), RequiredCount: required, RewardPoints: reward}
	snap.Skills[id] = s
	return s
}

func addLandmark(snap *catalog.Snapshot, id int64, position int, payout int64) *models.Landmark {
	l := &models.Landmark{ID: id, Name: fmt.Sprintf("landmark-%d", id), Position: position, PointsValue: payout}
	snap.Landmarks[id] = l
	snap.OrderedLandmarks = append(snap.OrderedLandmarks, l)
	return l
}

func addBadge(snap *catalog.Snapshot, id int64, requirementType string, threshold int) *models.Badge {
	b := &models.Badge{ID: id, Name: fmt.Sprintf("badge-%d", id), Category: "test", RequirementType: requirementType, Threshold: threshold}
	snap.Badges = append(snap.Badges, b)
	return b
}

func addReward(snap *catalog.Snapshot, id, cost int64) *models.Reward {
	r := &models.Reward{ID: id, Name: fmt.Sprintf("reward-%d", id), Cost: cost, IsActive: true}
	snap.Rewards[id] = r
	snap.ActiveRewards = append(snap.ActiveRewards, r)
	return r
}
