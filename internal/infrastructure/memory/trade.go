package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	ledgerv1 "github.com/999bits/wildfire/internal/domain/ledger/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
)

type lotKey struct {
	owner string
	lotID uint64
}

type operatorKey struct {
	owner    string
	operator string
}

// TradeLedger is an in-process lot ledger.
type TradeLedger struct {
	mu        sync.RWMutex
	balances  map[lotKey]uint64
	operators map[operatorKey]bool
}

var _ ledgerv1.TradeLedger = (*TradeLedger)(nil)

// NewTradeLedger creates an empty TradeLedger.
func NewTradeLedger() *TradeLedger {
	return &TradeLedger{
		balances:  make(map[lotKey]uint64),
		operators: make(map[operatorKey]bool),
	}
}

// Mint creates amount units of a lot for to.
func (l *TradeLedger) Mint(_ context.Context, to string, lotID, amount uint64) error {
	if to == "" || amount == 0 {
		return fmt.Errorf("%w: mint %d of lot %d to %q", ErrInvalidTransfer, amount, lotID, to)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := lotKey{to, lotID}
	if l.balances[k] > math.MaxUint64-amount {
		return fmt.Errorf("%w: lot %d balance of %s", ErrOverflow, lotID, to)
	}
	l.balances[k] += amount
	return nil
}

// Transfer moves lot units from one owner to another. operator must be the
// owner or an operator the owner authorised.
func (l *TradeLedger) Transfer(_ context.Context, operator, from, to string, lotID, amount uint64) error {
	if from == "" || to == "" || amount == 0 {
		return fmt.Errorf("%w: transfer %d of lot %d from %q to %q", ErrInvalidTransfer, amount, lotID, from, to)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if operator != from && !l.operators[operatorKey{from, operator}] {
		return fmt.Errorf("%w: %s is not an operator of %s", ErrNotAuthorized, operator, from)
	}

	src, dst := lotKey{from, lotID}, lotKey{to, lotID}
	if l.balances[src] < amount {
		return fmt.Errorf("%w: %s holds %d of lot %d, need %d", ErrInsufficientFunds, from, l.balances[src], lotID, amount)
	}
	if from != to && l.balances[dst] > math.MaxUint64-amount {
		return fmt.Errorf("%w: lot %d balance of %s", ErrOverflow, lotID, to)
	}

	l.balances[src] -= amount
	l.balances[dst] += amount
	if l.balances[src] == 0 {
		delete(l.balances, src)
	}
	return nil
}

// AuthorizeOperator grants or revokes operator rights over owner's lots.
func (l *TradeLedger) AuthorizeOperator(_ context.Context, owner, operator string, approved bool) error {
	if owner == "" || operator == "" {
		return fmt.Errorf("%w: authorize %q for %q", ErrInvalidTransfer, operator, owner)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := operatorKey{owner, operator}
	if approved {
		l.operators[k] = true
	} else {
		delete(l.operators, k)
	}
	return nil
}

// BalanceOf returns how much of a lot owner holds.
func (l *TradeLedger) BalanceOf(_ context.Context, owner string, lotID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[lotKey{owner, lotID}], nil
}

// IsAuthorized reports whether operator may move owner's lots.
func (l *TradeLedger) IsAuthorized(_ context.Context, owner, operator string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return owner == operator || l.operators[operatorKey{owner, operator}], nil
}

func (l *TradeLedger) snapshot(state *snapshotv1.LedgerState) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for k, amount := range l.balances {
		state.Lots = append(state.Lots, snapshotv1.LotBalance{Owner: k.owner, LotID: k.lotID, Amount: amount})
	}
	sort.Slice(state.Lots, func(i, j int) bool {
		if state.Lots[i].Owner != state.Lots[j].Owner {
			return state.Lots[i].Owner < state.Lots[j].Owner
		}
		return state.Lots[i].LotID < state.Lots[j].LotID
	})

	for k := range l.operators {
		state.Operators = append(state.Operators, snapshotv1.Operator{Owner: k.owner, Operator: k.operator})
	}
	sort.Slice(state.Operators, func(i, j int) bool {
		if state.Operators[i].Owner != state.Operators[j].Owner {
			return state.Operators[i].Owner < state.Operators[j].Owner
		}
		return state.Operators[i].Operator < state.Operators[j].Operator
	})
}

func (l *TradeLedger) restore(state *snapshotv1.LedgerState) {
	balances := make(map[lotKey]uint64, len(state.Lots))
	for _, b := range state.Lots {
		if b.Amount > 0 {
			balances[lotKey{b.Owner, b.LotID}] = b.Amount
		}
	}
	operators := make(map[operatorKey]bool, len(state.Operators))
	for _, o := range state.Operators {
		operators[operatorKey{o.Owner, o.Operator}] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = balances
	l.operators = operators
}
