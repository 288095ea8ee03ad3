package progression

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// streakDayFormat is the stored calendar-date layout.
const streakDayFormat = "2006-01-02"

// streakDayOffset pins the streak calendar to UTC+8 (Singapore): a
// day boundary falls at midnight SGT no matter where the server runs.
const streakDayOffset = 8 * time.Hour

// minQualifyingRunes is the shortest trimmed message text that counts
// toward a streak when it carries no image.
const minQualifyingRunes = 5

// Streaks maintains the per-pair daily interaction streak. The pair is
// unordered: messages in either direction land on the same row.
type Streaks struct {
	store Store

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

func NewStreaks(store Store) *Streaks {
	return &Streaks{store: store, now: time.Now}
}

// StreakResult is returned on a state change; same-day repeats return
// a nil result.
type StreakResult struct {
	Streak  int
	Stage   int
	Longest int
}

// stageFor derives the display stage from the current streak length.
func stageFor(streak int) int {
	switch {
	case streak <= 1:
		return 1
	case streak <= 3:
		return 2
	case streak <= 6:
		return 3
	case streak <= 10:
		return 4
	case streak <= 14:
		return 5
	case streak <= 21:
		return 6
	default:
		return 7
	}
}

// streakDay converts an instant to its calendar day in the streak
// timezone.
func streakDay(t time.Time) string {
	return t.UTC().Add(streakDayOffset).Format(streakDayFormat)
}

// qualifies reports whether a message counts toward the streak:
// trimmed text of at least five runes, or any image.
func qualifies(text string, hasImage bool) bool {
	if hasImage {
		return true
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= minQualifyingRunes
}

// RecordInteraction applies one message to the sender/receiver pair's
// streak. Non-qualifying messages and same-day repeats are silent
// no-ops returning (nil, nil).
func (s *Streaks) RecordInteraction(ctx context.Context, senderID, receiverID int64, text string, hasImage bool) (*StreakResult, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("pair streak needs two distinct users: %w", ErrNotFound)
	}
	if !qualifies(text, hasImage) {
		return nil, nil
	}

	lowID, highID := senderID, receiverID
	if lowID > highID {
		lowID, highID = highID, lowID
	}

	now := s.now()
	today := streakDay(now)
	yesterday := streakDay(now.Add(-24 * time.Hour))

	var result *StreakResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		pair, err := tx.GetOrCreatePairStreak(ctx, lowID, highID)
		if err != nil {
			return fmt.Errorf("failed to load pair streak: %w", err)
		}

		switch pair.LastStreakDate {
		case today:
			// Already counted today.
			return nil
		case yesterday:
			pair.StreakCount++
		default:
			// First record ever, or a gap of two or more days.
			pair.StreakCount = 1
		}

		if pair.StreakCount > pair.LongestStreak {
			pair.LongestStreak = pair.StreakCount
		}
		pair.LastStreakDate = today
		pair.Stage = stageFor(pair.StreakCount)
		pair.UpdatedAt = now

		if err := tx.UpdatePairStreak(ctx, pair); err != nil {
			return fmt.Errorf("failed to update pair streak: %w", err)
		}

		result = &StreakResult{
			Streak:  pair.StreakCount,
			Stage:   pair.Stage,
			Longest: pair.LongestStreak,
		}

		slog.Debug("Pair streak advanced",
			slog.Int64("user_low", lowID),
			slog.Int64("user_high", highID),
			slog.Int("streak", pair.StreakCount),
			slog.Int("stage", pair.Stage))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
