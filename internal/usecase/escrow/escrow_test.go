package escrow

import (
	"math"
	"testing"

	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var lot1 = orderbookv1.TradeLot(1)

func TestLedger_LockUnlock(t *testing.T) {
	ledger := New()

	ledger.Lock("alice", lot1, 10)
	ledger.Lock("alice", lot1, 5)
	ledger.Lock("bob", lot1, 3)
	ledger.Lock("bob", orderbookv1.PaymentAsset, 40)

	assert.Equal(t, uint64(15), ledger.Get("alice", lot1))
	assert.Equal(t, uint64(18), ledger.Total(lot1))
	assert.Equal(t, uint64(40), ledger.Total(orderbookv1.PaymentAsset))

	ledger.Unlock("alice", lot1, 15)
	assert.Equal(t, uint64(0), ledger.Get("alice", lot1))
	assert.Equal(t, uint64(3), ledger.Total(lot1))

	assert.Equal(t, []snapshotv1.EscrowEntry{
		{User: "bob", Asset: orderbookv1.PaymentAsset, Amount: 40},
		{User: "bob", Asset: lot1, Amount: 3},
	}, ledger.Entries())
}

func TestLedger_UnlockPanics(t *testing.T) {
	ledger := New()
	ledger.Lock("alice", lot1, 2)

	assert.Panics(t, func() { ledger.Unlock("alice", lot1, 3) })
	assert.Panics(t, func() { ledger.Unlock("bob", lot1, 1) })
	assert.Equal(t, uint64(2), ledger.Get("alice", lot1))
}

func TestLedger_Restore(t *testing.T) {
	ledger := New()
	ledger.Lock("carol", lot1, 99)

	require.NoError(t, ledger.Restore([]snapshotv1.EscrowEntry{
		{User: "alice", Asset: lot1, Amount: 4},
		{User: "bob", Asset: orderbookv1.PaymentAsset, Amount: 0},
	}))

	assert.Equal(t, uint64(0), ledger.Get("carol", lot1))
	assert.Equal(t, uint64(4), ledger.Total(lot1))
	assert.Len(t, ledger.Entries(), 1)
}

func TestLedger_RestoreOverflow(t *testing.T) {
	testCases := []struct {
		name    string
		entries []snapshotv1.EscrowEntry
	}{
		{
			name: "user balance",
			entries: []snapshotv1.EscrowEntry{
				{User: "alice", Asset: lot1, Amount: math.MaxUint64},
				{User: "alice", Asset: lot1, Amount: 1},
			},
		},
		{
			name: "asset total",
			entries: []snapshotv1.EscrowEntry{
				{User: "alice", Asset: lot1, Amount: math.MaxUint64},
				{User: "bob", Asset: lot1, Amount: 1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := New()
			ledger.Lock("carol", lot1, 9)

			var err error
			require.NotPanics(t, func() { err = ledger.Restore(tc.entries) })
			assert.Equal(t, orderbookv1.KindInsufficientEscrow, orderbookv1.KindOf(err))
			assert.Equal(t, uint64(9), ledger.Get("carol", lot1))
			assert.Equal(t, uint64(9), ledger.Total(lot1))
		})
	}

	assert.Panics(t, func() {
		ledger := New()
		ledger.Lock("alice", lot1, math.MaxUint64)
		ledger.Lock("alice", lot1, 1)
	})
}

func TestLedger_TotalMatchesSumProperty(t *testing.T) {
	users := []string{"alice", "bob", "carol"}
	assets := []orderbookv1.AssetID{orderbookv1.PaymentAsset, orderbookv1.TradeLot(1), orderbookv1.TradeLot(2)}

	rapid.Check(t, func(t *rapid.T) {
		ledger := New()
		model := make(map[key]uint64)

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			k := key{
				user:  rapid.SampledFrom(users).Draw(t, "user"),
				asset: rapid.SampledFrom(assets).Draw(t, "asset"),
			}
			if rapid.Bool().Draw(t, "lock") || model[k] == 0 {
				amount := rapid.Uint64Range(1, 1_000).Draw(t, "lockAmount")
				ledger.Lock(k.user, k.asset, amount)
				model[k] += amount
				continue
			}
			amount := rapid.Uint64Range(1, model[k]).Draw(t, "unlockAmount")
			ledger.Unlock(k.user, k.asset, amount)
			model[k] -= amount
		}

		for _, asset := range assets {
			var sum uint64
			for _, user := range users {
				got := ledger.Get(user, asset)
				if got != model[key{user, asset}] {
					t.Fatalf("%s/%s locked %d, want %d", user, asset, got, model[key{user, asset}])
				}
				sum += got
			}
			if ledger.Total(asset) != sum {
				t.Fatalf("total of %s is %d, sum of balances is %d", asset, ledger.Total(asset), sum)
			}
		}
	})
}
