package migration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/duospark/progression/engine/database/models"
	"github.com/duospark/progression/engine/progression"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegacyUser is the old MongoDB user document shape.
type LegacyUser struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`

	// Points was the single balance of the old model: earned minus
	// nothing, with spends tracked separately in SpentPoints.
	Points      int64 `bson:"points"`
	SpentPoints int64 `bson:"spent_points"`

	Streak int       `bson:"streak"`
	Joined time.Time `bson:"joined"`
}

// ConvertLegacyUser maps a legacy document onto the dual-balance
// model: the old points become the lifetime total, and the spendable
// balance is what's left after recorded spends.
func ConvertLegacyUser(legacy LegacyUser) *models.User {
	now := time.Now()

	total := legacy.Points
	if total < 0 {
		total = 0
	}
	available := total - legacy.SpentPoints
	if available < 0 {
		available = 0
	}

	created := legacy.Joined
	if created.IsZero() {
		created = now
	}

	return &models.User{
		Username:        cleanseString(legacy.Username),
		TotalPoints:     total,
		AvailablePoints: available,
		CurrentTier:     progression.TierFor(total),
		CurrentStreak:   legacy.Streak,
		CreatedAt:       created,
		UpdatedAt:       now,
	}
}

// cleanseString strips invalid UTF-8 and NUL bytes, which the old
// store tolerated and Postgres does not.
func cleanseString(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}
