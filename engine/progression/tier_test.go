package progression

import (
	"context"
	"testing"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name   string
		points int64
		want   int
	}{
		{"zero points", 0, 1},
		{"just below tier 2", 1999, 1},
		{"exactly tier 2", 2000, 2},
		{"just below tier 3", 4999, 2},
		{"exactly tier 3", 5000, 3},
		{"just above tier 3", 5001, 3},
		{"just below tier 4", 9999, 3},
		{"exactly tier 4", 10000, 4},
		{"exactly tier 5", 20000, 5},
		{"just below tier 6", 34999, 5},
		{"exactly tier 6", 35000, 6},
		{"far above top tier", 1000000, 6},
		{"negative legacy value", -50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFor(tt.points); got != tt.want {
				t.Errorf("TierFor(%d) = %d, want %d", tt.points, got, tt.want)
			}
		})
	}
}

func TestCurrentTierRepairsStaleCache(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(1, 12000, 12000)
	user.CurrentTier = 2 // stale

	ledger := NewLedger(store)
	tier, err := ledger.CurrentTier(context.Background(), 1)
	if err != nil {
		t.Fatalf("CurrentTier() error = %v", err)
	}
	if tier != 4 {
		t.Errorf("CurrentTier() = %d, want 4", tier)
	}
	if store.users[1].CurrentTier != 4 {
		t.Errorf("cached tier = %d, want 4 after repair", store.users[1].CurrentTier)
	}
}

func TestTierNeverDecreasesUnderCredits(t *testing.T) {
	// Credits only ever grow total points, so the computed tier is
	// monotone over any credit sequence.
	store := newFakeStore()
	store.addUser(1, 0, 0)
	ledger := NewLedger(store)

	prev := 1
	for _, amount := range []int64{500, 1500, 3000, 5000, 10000, 15000} {
		if _, err := ledger.Credit(context.Background(), 1, amount); err != nil {
			t.Fatalf("Credit(%d) error = %v", amount, err)
		}
		tier := store.users[1].CurrentTier
		if tier < prev {
			t.Fatalf("tier decreased from %d to %d after crediting %d", prev, tier, amount)
		}
		prev = tier
	}
	if prev != 6 {
		t.Errorf("final tier = %d, want 6 at 35000 lifetime points", prev)
	}
}
