package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Landmark struct {
	bun.BaseModel `bun:"table:landmarks,alias:l"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`

	// Position is the landmark's ordinal in the ladder, starting at 0.
	// Unlocking position N requires (N+1)*1000 lifetime points.
	Position    int   `bun:"position,notnull,unique"`
	PointsValue int64 `bun:"points_value,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type UserLandmarkState struct {
	bun.BaseModel `bun:"table:user_landmark_state,alias:uls"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      int64      `bun:"user_id,notnull"`
	LandmarkID  int64      `bun:"landmark_id,notnull"`
	Unlocked    bool       `bun:"unlocked,notnull,default:false"`
	Completed   bool       `bun:"completed,notnull,default:false"`
	UnlockedAt  *time.Time `bun:"unlocked_at"`
	CompletedAt *time.Time `bun:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
}
