package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Skill struct {
	bun.BaseModel `bun:"table:skills,alias:s"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`

	// ParentID is prerequisite metadata only; the engine does not gate
	// advancement on it.
	ParentID *int64 `bun:"parent_id"`

	RequiredCount int   `bun:"required_count,notnull"`
	RewardPoints  int64 `bun:"reward_points,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type UserSkillProgress struct {
	bun.BaseModel `bun:"table:user_skill_progress,alias:usp"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      int64      `bun:"user_id,notnull"`
	SkillID     int64      `bun:"skill_id,notnull"`
	Progress    int        `bun:"progress,notnull,default:0"`
	Completed   bool       `bun:"completed,notnull,default:false"`
	CompletedAt *time.Time `bun:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
}
