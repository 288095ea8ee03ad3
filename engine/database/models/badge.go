package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Badge struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID              int64  `bun:"id,pk,autoincrement"`
	Name            string `bun:"name,notnull"`
	Category        string `bun:"category,notnull"`
	RequirementType string `bun:"requirement_type,notnull"`

	// Threshold values of AllSkillsThreshold and above on a skills badge
	// mean "every skill in the catalog"; the catalog layer resolves that
	// into a tagged requirement so the sentinel never leaks further.
	Threshold int `bun:"threshold,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Badge requirement type constants
const (
	RequirementTypePoints    = "points"
	RequirementTypeLandmarks = "landmarks"
	RequirementTypeQuests    = "quests"
	RequirementTypeTier      = "tier"
	RequirementTypeSkills    = "skills"
)

// AllSkillsThreshold marks a skills badge whose bar is the live size of
// the skill catalog.
const AllSkillsThreshold = 999

type UserBadgeState struct {
	bun.BaseModel `bun:"table:user_badge_state,alias:ubs"`

	ID        int64      `bun:"id,pk,autoincrement"`
	UserID    int64      `bun:"user_id,notnull"`
	BadgeID   int64      `bun:"badge_id,notnull"`
	Earned    bool       `bun:"earned,notnull,default:false"`
	EarnedAt  *time.Time `bun:"earned_at"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}
