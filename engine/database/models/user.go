package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Username string `bun:"username,notnull,unique"`

	// Points economy. TotalPoints is the lifetime achievement score and
	// never decreases; AvailablePoints is the spendable balance rewards
	// consume. CurrentTier is a cache of TierFor(TotalPoints).
	TotalPoints     int64 `bun:"total_points,notnull,default:0"`
	AvailablePoints int64 `bun:"available_points,notnull,default:0"`
	CurrentTier     int   `bun:"current_tier,notnull,default:1"`

	// Legacy single-streak field kept for rows imported from the old
	// system. Pair streaks live in pair_streaks.
	CurrentStreak int `bun:"current_streak,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
