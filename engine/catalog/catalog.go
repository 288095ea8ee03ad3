package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/duospark/progression/engine/database/models"
	"golang.org/x/sync/errgroup"
)

// Repository is the read side of the catalog tables.
type Repository interface {
	ListQuests(ctx context.Context) ([]*models.Quest, error)
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	ListLandmarks(ctx context.Context) ([]*models.Landmark, error)
	ListBadges(ctx context.Context) ([]*models.Badge, error)
	ListRewards(ctx context.Context) ([]*models.Reward, error)
}

// Snapshot is an immutable view of every catalog, loaded in one pass.
// Callers must never mutate the contained slices or maps; catalog
// changes go through Service.Reload, which swaps in a fresh snapshot.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time

	Quests    map[int64]*models.Quest
	Skills    map[int64]*models.Skill
	Landmarks map[int64]*models.Landmark
	Badges    []*models.Badge
	Rewards   map[int64]*models.Reward

	// OrderedLandmarks is sorted by Position ascending.
	OrderedLandmarks []*models.Landmark
	// ActiveRewards is sorted by cost ascending and excludes archived rows.
	ActiveRewards []*models.Reward
}

// BadgeRequirement is the resolved form of a badge's stored
// requirement. AllOfCatalog replaces the numeric "all skills" sentinel
// so large literal thresholds can't collide with it downstream.
type BadgeRequirement struct {
	Type         string
	Threshold    int
	AllOfCatalog bool
}

// RequirementFor resolves a badge's requirement against this snapshot.
func (s *Snapshot) RequirementFor(b *models.Badge) BadgeRequirement {
	req := BadgeRequirement{Type: b.RequirementType, Threshold: b.Threshold}
	if b.RequirementType == models.RequirementTypeSkills && b.Threshold >= models.AllSkillsThreshold {
		req.AllOfCatalog = true
		req.Threshold = len(s.Skills)
	}
	return req
}

// LandmarkThreshold returns the lifetime points needed to unlock a
// landmark: (ordinal + 1) * 1000.
func (s *Snapshot) LandmarkThreshold(l *models.Landmark) int64 {
	return int64(l.Position+1) * 1000
}

// Service holds the current catalog snapshot and reloads it on demand.
type Service struct {
	repo    Repository
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Load populates the initial snapshot. The five catalogs are fetched
// concurrently; a failure on any of them fails the whole load.
func (s *Service) Load(ctx context.Context) error {
	snap, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalogs: %w", err)
	}
	s.current.Store(snap)

	slog.Info("Catalogs loaded",
		slog.Int("quests", len(snap.Quests)),
		slog.Int("skills", len(snap.Skills)),
		slog.Int("landmarks", len(snap.Landmarks)),
		slog.Int("badges", len(snap.Badges)),
		slog.Int("rewards", len(snap.Rewards)),
		slog.Int64("version", snap.Version))
	return nil
}

// Reload swaps in a fresh snapshot. Admin catalog writes call this
// after committing; readers keep the old snapshot until the swap.
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Snapshot returns the current snapshot. It panics if Load was never
// called; the engine cannot operate without catalogs.
func (s *Service) Snapshot() *Snapshot {
	snap := s.current.Load()
	if snap == nil {
		panic("catalog: Snapshot called before Load")
	}
	return snap
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Version:  s.version.Add(1),
		LoadedAt: time.Now(),
	}

	var (
		quests    []*models.Quest
		skills    []*models.Skill
		landmarks []*models.Landmark
		badges    []*models.Badge
		rewards   []*models.Reward
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { quests, err = s.repo.ListQuests(gctx); return })
	g.Go(func() (err error) { skills, err = s.repo.ListSkills(gctx); return })
	g.Go(func() (err error) { landmarks, err = s.repo.ListLandmarks(gctx); return })
	g.Go(func() (err error) { badges, err = s.repo.ListBadges(gctx); return })
	g.Go(func() (err error) { rewards, err = s.repo.ListRewards(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Quests = make(map[int64]*models.Quest, len(quests))
	for _, q := range quests {
		snap.Quests[q.ID] = q
	}

	snap.Skills = make(map[int64]*models.Skill, len(skills))
	for _, sk := range skills {
		snap.Skills[sk.ID] = sk
	}

	snap.Landmarks = make(map[int64]*models.Landmark, len(landmarks))
	snap.OrderedLandmarks = make([]*models.Landmark, 0, len(landmarks))
	for _, l := range landmarks {
		snap.Landmarks[l.ID] = l
		snap.OrderedLandmarks = append(snap.OrderedLandmarks, l)
	}
	sort.Slice(snap.OrderedLandmarks, func(i, j int) bool {
		return snap.OrderedLandmarks[i].Position < snap.OrderedLandmarks[j].Position
	})

	snap.Badges = badges

	snap.Rewards = make(map[int64]*models.Reward, len(rewards))
	snap.ActiveRewards = make([]*models.Reward, 0, len(rewards))
	for _, r := range rewards {
		snap.Rewards[r.ID] = r
		if r.IsActive {
			snap.ActiveRewards = append(snap.ActiveRewards, r)
		}
	}
	sort.Slice(snap.ActiveRewards, func(i, j int) bool {
		return snap.ActiveRewards[i].Cost < snap.ActiveRewards[j].Cost
	})

	return snap, nil
}
