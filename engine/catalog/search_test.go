package catalog

import (
	"testing"

	"github.com/duospark/progression/engine/database/models"
)

func searchSnapshot() *Snapshot {
	return &Snapshot{
		Quests: map[int64]*models.Quest{
			1: {ID: 1, Name: "Harbor Patrol"},
		},
		Skills: map[int64]*models.Skill{
			2: {ID: 2, Name: "Harmonica"},
		},
		Landmarks: map[int64]*models.Landmark{
			3: {ID: 3, Name: "Old Harbor"},
		},
		OrderedLandmarks: []*models.Landmark{{ID: 3, Name: "Old Harbor"}},
		Badges:           []*models.Badge{{ID: 4, Name: "Night Owl"}},
		ActiveRewards:    []*models.Reward{{ID: 5, Name: "Harbor Poster"}},
		Rewards:          map[int64]*models.Reward{5: {ID: 5, Name: "Harbor Poster"}},
	}
}

func TestSearch(t *testing.T) {
	snap := searchSnapshot()

	t.Run("matches across every catalog kind", func(t *testing.T) {
		results := snap.Search("harbor", 0)
		kinds := make(map[string]bool)
		for _, r := range results {
			kinds[r.Kind] = true
		}
		for _, want := range []string{KindQuest, KindLandmark, KindReward} {
			if !kinds[want] {
				t.Errorf("no %s result for %q, got %+v", want, "harbor", results)
			}
		}
		if kinds[KindBadge] {
			t.Errorf("badge matched %q unexpectedly", "harbor")
		}
	})

	t.Run("best match first", func(t *testing.T) {
		results := snap.Search("owl", 0)
		if len(results) == 0 {
			t.Fatal("no results for \"owl\"")
		}
		if results[0].Kind != KindBadge || results[0].ID != 4 {
			t.Errorf("top result = %+v, want the Night Owl badge", results[0])
		}
		for i := 1; i < len(results); i++ {
			if results[i].Score > results[i-1].Score {
				t.Errorf("results not score-descending at index %d", i)
			}
		}
	})

	t.Run("limit caps the result count", func(t *testing.T) {
		if got := len(snap.Search("har", 2)); got > 2 {
			t.Errorf("len(results) = %d with limit 2", got)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		if len(snap.Search("HARMONICA", 0)) == 0 {
			t.Error("uppercase query matched nothing")
		}
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		if res := snap.Search("   ", 0); res != nil {
			t.Errorf("blank query returned %+v", res)
		}
	})
}
