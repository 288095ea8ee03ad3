package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/duospark/progression/engine/database/models"
	"github.com/duospark/progression/engine/progression"
	lru "github.com/hashicorp/golang-lru"
)

const cacheSize = 64

// Repository is the read side the leaderboard needs.
type Repository interface {
	GetTopUsers(ctx context.Context, limit int) ([]*models.User, error)
}

// Entry is one leaderboard row, ranked by lifetime points.
type Entry struct {
	Rank        int
	UserID      int64
	Username    string
	TotalPoints int64
	Tier        int
}

type cachedPage struct {
	entries   []Entry
	timestamp time.Time
}

// Service serves lifetime-points leaderboard pages with a small
// expiring cache; ranks may lag writes by up to the expiry.
type Service struct {
	repo   Repository
	cache  *lru.Cache
	expiry time.Duration
}

func NewService(repo Repository, expiry time.Duration) *Service {
	cache, _ := lru.New(cacheSize)
	return &Service{repo: repo, cache: cache, expiry: expiry}
}

// Top returns the highest-ranked users by lifetime points.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("leaderboard limit must be positive, got %d", limit)
	}

	if cached, ok := s.cache.Get(limit); ok {
		page := cached.(cachedPage)
		if time.Since(page.timestamp) < s.expiry {
			return page.entries, nil
		}
		s.cache.Remove(limit)
	}

	users, err := s.repo.GetTopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, len(users))
	for i, u := range users {
		entries[i] = Entry{
			Rank:        i + 1,
			UserID:      u.ID,
			Username:    u.Username,
			TotalPoints: u.TotalPoints,
			Tier:        progression.TierFor(u.TotalPoints),
		}
	}

	s.cache.Add(limit, cachedPage{entries: entries, timestamp: time.Now()})
	return entries, nil
}

// Invalidate drops every cached page; call after bulk point changes
// that should be visible immediately.
func (s *Service) Invalidate() {
	s.cache.Purge()
}
