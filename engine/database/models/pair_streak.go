package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PairStreak tracks consecutive calendar days with at least one
// qualifying interaction between two users. The pair is stored
// normalized: UserLowID < UserHighID, one row per pair regardless of
// who messaged whom.
type PairStreak struct {
	bun.BaseModel `bun:"table:pair_streaks,alias:ps"`

	ID         int64 `bun:"id,pk,autoincrement"`
	UserLowID  int64 `bun:"user_low_id,notnull"`
	UserHighID int64 `bun:"user_high_id,notnull"`

	StreakCount   int `bun:"streak_count,notnull,default:0"`
	LongestStreak int `bun:"longest_streak,notnull,default:0"`

	// LastStreakDate is a calendar date string (2006-01-02) in the
	// engine's fixed streak timezone, not an instant. Empty means the
	// pair has never recorded a qualifying day.
	LastStreakDate string `bun:"last_streak_date,nullzero"`

	Stage int `bun:"stage,notnull,default:1"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
