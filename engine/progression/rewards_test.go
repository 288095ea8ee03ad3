package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database/models"
)

func rewardFixture(t *testing.T) (*fakeStore, *catalog.Snapshot, *Rewards) {
	t.Helper()
	store := newFakeStore()
	snap := testSnapshot()
	addReward(snap, 7, 1000)
	addReward(snap, 8, 1250)
	return store, snap, NewRewards(store, &fakeCatalog{snap: snap})
}

// racingStore simulates losing a redemption race: the existence check
// sees nothing, but the row is already there when the insert lands.
type racingStore struct {
	*fakeStore
}

func (r *racingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, r)
}

func (r *racingStore) GetRedemption(context.Context, int64, int64) (*models.UserRewardRedemption, error) {
	return nil, nil
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("successful redemption debits available only", func(t *testing.T) {
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 1500, 1250)

		res, err := rewards.Redeem(ctx, 1, 7)
		if err != nil {
			t.Fatalf("Redeem() error = %v", err)
		}
		if res.Status != models.RewardStatusRedeemed || !res.Changed {
			t.Errorf("status=%q changed=%v, want redeemed/true", res.Status, res.Changed)
		}
		if res.AvailablePoints != 250 {
			t.Errorf("AvailablePoints = %d, want 250", res.AvailablePoints)
		}
		if store.users[1].TotalPoints != 1500 {
			t.Errorf("TotalPoints = %d, want 1500 unchanged", store.users[1].TotalPoints)
		}
		if store.redemptions[pairKey{1, 7}] == nil {
			t.Error("redemption row not recorded")
		}
	})

	t.Run("second redemption is a no-change success", func(t *testing.T) {
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 5000, 5000)

		if _, err := rewards.Redeem(ctx, 1, 7); err != nil {
			t.Fatalf("first Redeem() error = %v", err)
		}
		res, err := rewards.Redeem(ctx, 1, 7)
		if err != nil {
			t.Fatalf("second Redeem() error = %v", err)
		}
		if res.Changed {
			t.Error("second Redeem() reported Changed = true")
		}
		if res.AvailablePoints != 4000 {
			t.Errorf("AvailablePoints = %d, want 4000 after single debit", res.AvailablePoints)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 900, 900)

		if _, err := rewards.Redeem(ctx, 1, 7); !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Redeem() error = %v, want ErrInsufficientBalance", err)
		}
		if store.users[1].AvailablePoints != 900 {
			t.Errorf("failed redeem changed balance to %d", store.users[1].AvailablePoints)
		}
	})

	t.Run("legacy balance backfilled on demand", func(t *testing.T) {
		// Single-balance era user: lifetime total set, spendable zero,
		// no redemption history.
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 2000, 0)

		res, err := rewards.Redeem(ctx, 1, 7)
		if err != nil {
			t.Fatalf("Redeem() error = %v", err)
		}
		if res.AvailablePoints != 1000 {
			t.Errorf("AvailablePoints = %d, want 1000 after backfill then debit", res.AvailablePoints)
		}
	})

	t.Run("backfill denied once a redemption exists", func(t *testing.T) {
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 2000, 0)
		store.redemptions[pairKey{1, 8}] = &models.UserRewardRedemption{
			UserID: 1, RewardID: 8, RedeemedAt: time.Now(),
		}

		if _, err := rewards.Redeem(ctx, 1, 7); !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Redeem() error = %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("lost insert race reads as already redeemed", func(t *testing.T) {
		// A concurrent transaction commits its redemption between this
		// transaction's existence check and its insert: the unique
		// index rejects the insert, and the loser must report redeemed
		// with no second debit.
		fake := newFakeStore()
		fake.addUser(1, 5000, 4000) // winner already debited 1000
		fake.redemptions[pairKey{1, 7}] = &models.UserRewardRedemption{
			UserID: 1, RewardID: 7, RedeemedAt: time.Now(),
		}
		store := &racingStore{fakeStore: fake}
		snap := testSnapshot()
		addReward(snap, 7, 1000)
		rewards := NewRewards(store, &fakeCatalog{snap: snap})

		res, err := rewards.Redeem(ctx, 1, 7)
		if err != nil {
			t.Fatalf("Redeem() error = %v", err)
		}
		if res.Status != models.RewardStatusRedeemed {
			t.Errorf("Status = %q, want redeemed", res.Status)
		}
		if res.Changed {
			t.Error("Changed = true on the losing transaction")
		}
		if res.AvailablePoints != 4000 {
			t.Errorf("AvailablePoints = %d, want 4000 from the winner's single debit", res.AvailablePoints)
		}
		if fake.users[1].AvailablePoints != 4000 {
			t.Errorf("stored balance = %d, want 4000 with no double debit", fake.users[1].AvailablePoints)
		}
	})

	t.Run("unknown reward", func(t *testing.T) {
		store, _, rewards := rewardFixture(t)
		store.addUser(1, 5000, 5000)

		if _, err := rewards.Redeem(ctx, 1, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("Redeem() error = %v, want ErrNotFound", err)
		}
	})
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	store, _, rewards := rewardFixture(t)
	store.addUser(1, 1500, 1000)
	store.redemptions[pairKey{1, 8}] = &models.UserRewardRedemption{
		UserID: 1, RewardID: 8, RedeemedAt: time.Now(),
	}

	listings, err := rewards.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}

	// ActiveRewards is cost-ascending: reward 7 (1000) then 8 (1250).
	statuses := map[int64]string{}
	for _, l := range listings {
		statuses[l.Reward.ID] = l.Status
	}
	if statuses[7] != models.RewardStatusAvailable {
		t.Errorf("reward 7 status = %q, want available at exact cost", statuses[7])
	}
	if statuses[8] != models.RewardStatusRedeemed {
		t.Errorf("reward 8 status = %q, want redeemed over locked", statuses[8])
	}
}

func TestListForUserLocked(t *testing.T) {
	ctx := context.Background()
	store, _, rewards := rewardFixture(t)
	store.addUser(1, 1500, 999)

	listings, err := rewards.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	for _, l := range listings {
		if l.Status != models.RewardStatusLocked {
			t.Errorf("reward %d status = %q, want locked below cost", l.Reward.ID, l.Status)
		}
	}
}

func TestArchiveReward(t *testing.T) {
	ctx := context.Background()
	store, _, rewards := rewardFixture(t)

	if err := rewards.Archive(ctx, 7); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if !store.archived[7] {
		t.Error("reward 7 not marked archived in the store")
	}

	if err := rewards.Archive(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Archive(unknown) error = %v, want ErrNotFound", err)
	}
}
