package escrow

import (
	"fmt"
	"math"
	"sort"

	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
)

type key struct {
	user  string
	asset orderbookv1.AssetID
}

// Ledger tracks the collateral locked by each user for each asset.
// It is not safe for concurrent use.
type Ledger struct {
	locked map[key]uint64
	totals map[orderbookv1.AssetID]uint64
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		locked: make(map[key]uint64),
		totals: make(map[orderbookv1.AssetID]uint64),
	}
}

// Lock adds amount to the locked balance of user for asset.
// Callers check the amount fits first, so an overflow panics.
func (l *Ledger) Lock(user string, asset orderbookv1.AssetID, amount uint64) {
	if err := l.TryLock(user, asset, amount); err != nil {
		panic(err.Error())
	}
}

// TryLock is Lock for untrusted amounts: an overflowing balance or total
// is returned as an error and leaves the ledger unchanged.
func (l *Ledger) TryLock(user string, asset orderbookv1.AssetID, amount uint64) error {
	k := key{user, asset}
	if l.locked[k] > math.MaxUint64-amount || l.totals[asset] > math.MaxUint64-amount {
		return orderbookv1.NewError(orderbookv1.KindInsufficientEscrow, "%s locking %d of %s overflows", user, amount, asset)
	}
	l.locked[k] += amount
	l.totals[asset] += amount
	return nil
}

// Unlock releases amount from the locked balance of user for asset.
// Releasing more than is locked is a bookkeeping breach and panics.
func (l *Ledger) Unlock(user string, asset orderbookv1.AssetID, amount uint64) {
	k := key{user, asset}
	locked := l.locked[k]
	if amount > locked {
		panic(fmt.Sprintf("%s: %s release %d of %s, locked %d", orderbookv1.KindInsufficientEscrow, user, amount, asset, locked))
	}

	if locked == amount {
		delete(l.locked, k)
	} else {
		l.locked[k] = locked - amount
	}

	l.totals[asset] -= amount
	if l.totals[asset] == 0 {
		delete(l.totals, asset)
	}
}

// Get returns the locked balance of user for asset.
func (l *Ledger) Get(user string, asset orderbookv1.AssetID) uint64 {
	return l.locked[key{user, asset}]
}

// Total returns the sum of every user's locked balance for asset.
func (l *Ledger) Total(asset orderbookv1.AssetID) uint64 {
	return l.totals[asset]
}

// Entries lists the non-zero balances ordered by user then asset.
func (l *Ledger) Entries() []snapshotv1.EscrowEntry {
	entries := make([]snapshotv1.EscrowEntry, 0, len(l.locked))
	for k, amount := range l.locked {
		entries = append(entries, snapshotv1.EscrowEntry{User: k.user, Asset: k.asset, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].User != entries[j].User {
			return entries[i].User < entries[j].User
		}
		return entries[i].Asset < entries[j].Asset
	})
	return entries
}

// Restore replaces the ledger content with entries. On error the ledger is unchanged.
func (l *Ledger) Restore(entries []snapshotv1.EscrowEntry) error {
	restored := New()
	for _, e := range entries {
		if e.Amount == 0 {
			continue
		}
		if err := restored.TryLock(e.User, e.Asset, e.Amount); err != nil {
			return err
		}
	}
	*l = *restored
	return nil
}
