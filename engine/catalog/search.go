package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Entry kinds returned by Search.
const (
	KindQuest    = "quest"
	KindSkill    = "skill"
	KindLandmark = "landmark"
	KindBadge    = "badge"
	KindReward   = "reward"
)

// SearchResult is one catalog entry matched by a fuzzy query.
type SearchResult struct {
	Kind  string
	ID    int64
	Name  string
	Score int
}

// searchItems implements fuzzy.Source over a unified entry list.
type searchItems []SearchResult

func (items searchItems) Len() int { return len(items) }

func (items searchItems) String(i int) string { return strings.ToLower(items[i].Name) }

// Search fuzzy-matches query against every catalog entry's name and
// returns results ordered by match score, best first.
func (s *Snapshot) Search(query string, limit int) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	items := make(searchItems, 0, len(s.Quests)+len(s.Skills)+len(s.Landmarks)+len(s.Badges)+len(s.Rewards))
	for _, q := range s.Quests {
		items = append(items, SearchResult{Kind: KindQuest, ID: q.ID, Name: q.Name})
	}
	for _, sk := range s.Skills {
		items = append(items, SearchResult{Kind: KindSkill, ID: sk.ID, Name: sk.Name})
	}
	for _, l := range s.OrderedLandmarks {
		items = append(items, SearchResult{Kind: KindLandmark, ID: l.ID, Name: l.Name})
	}
	for _, b := range s.Badges {
		items = append(items, SearchResult{Kind: KindBadge, ID: b.ID, Name: b.Name})
	}
	for _, r := range s.ActiveRewards {
		items = append(items, SearchResult{Kind: KindReward, ID: r.ID, Name: r.Name})
	}

	matches := fuzzy.FindFrom(query, items)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		res := items[m.Index]
		res.Score = m.Score
		results[i] = res
	}
	return results
}
