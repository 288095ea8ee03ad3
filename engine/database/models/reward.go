package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Reward struct {
	bun.BaseModel `bun:"table:rewards,alias:r"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	Cost        int64     `bun:"cost,notnull"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

// Reward status values derived per user at listing time.
const (
	RewardStatusRedeemed  = "redeemed"
	RewardStatusAvailable = "available"
	RewardStatusLocked    = "locked"
)

// UserRewardRedemption existence means the reward was redeemed; there
// is no un-redeem. (user_id, reward_id) carries a unique constraint
// that serializes concurrent redemption attempts.
type UserRewardRedemption struct {
	bun.BaseModel `bun:"table:user_reward_redemptions,alias:urr"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull"`
	RewardID   int64     `bun:"reward_id,notnull"`
	RedeemedAt time.Time `bun:"redeemed_at,notnull"`
}
