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

type allowanceKey struct {
	owner   string
	spender string
}

// PaymentLedger is an in-process fungible token ledger with allowances.
type PaymentLedger struct {
	mu         sync.RWMutex
	balances   map[string]uint64
	allowances map[allowanceKey]uint64
}

var _ ledgerv1.PaymentLedger = (*PaymentLedger)(nil)

// NewPaymentLedger creates an empty PaymentLedger.
func NewPaymentLedger() *PaymentLedger {
	return &PaymentLedger{
		balances:   make(map[string]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// Deposit credits amount to to.
func (l *PaymentLedger) Deposit(_ context.Context, to string, amount uint64) error {
	if to == "" || amount == 0 {
		return fmt.Errorf("%w: deposit %d to %q", ErrInvalidTransfer, amount, to)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("%w: payment balance of %s", ErrOverflow, to)
	}
	l.balances[to] += amount
	return nil
}

// Approve sets how much spender may move out of owner's balance.
func (l *PaymentLedger) Approve(_ context.Context, owner, spender string, amount uint64) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("%w: approve %q for %q", ErrInvalidTransfer, spender, owner)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := allowanceKey{owner, spender}
	if amount == 0 {
		delete(l.allowances, k)
		return nil
	}
	l.allowances[k] = amount
	return nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (l *PaymentLedger) Allowance(_ context.Context, owner, spender string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[allowanceKey{owner, spender}], nil
}

// Transfer moves amount from the caller's own balance.
func (l *PaymentLedger) Transfer(_ context.Context, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount out of from's balance against spender's allowance.
func (l *PaymentLedger) TransferFrom(_ context.Context, spender, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := allowanceKey{from, spender}
	if spender != from && l.allowances[k] < amount {
		return fmt.Errorf("%w: %s may spend %d of %s, need %d", ErrNotAuthorized, spender, l.allowances[k], from, amount)
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	if spender != from {
		l.allowances[k] -= amount
		if l.allowances[k] == 0 {
			delete(l.allowances, k)
		}
	}
	return nil
}

// BalanceOf returns owner's payment balance.
func (l *PaymentLedger) BalanceOf(_ context.Context, owner string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[owner], nil
}

func (l *PaymentLedger) move(from, to string, amount uint64) error {
	if from == "" || to == "" || amount == 0 {
		return fmt.Errorf("%w: transfer %d from %q to %q", ErrInvalidTransfer, amount, from, to)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	if from != to && l.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("%w: payment balance of %s", ErrOverflow, to)
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	if l.balances[from] == 0 {
		delete(l.balances, from)
	}
	return nil
}

func (l *PaymentLedger) snapshot(state *snapshotv1.LedgerState) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for owner, amount := range l.balances {
		state.Payments = append(state.Payments, snapshotv1.Balance{Owner: owner, Amount: amount})
	}
	sort.Slice(state.Payments, func(i, j int) bool { return state.Payments[i].Owner < state.Payments[j].Owner })

	for k, amount := range l.allowances {
		state.Allowances = append(state.Allowances, snapshotv1.Allowance{Owner: k.owner, Spender: k.spender, Amount: amount})
	}
	sort.Slice(state.Allowances, func(i, j int) bool {
		if state.Allowances[i].Owner != state.Allowances[j].Owner {
			return state.Allowances[i].Owner < state.Allowances[j].Owner
		}
		return state.Allowances[i].Spender < state.Allowances[j].Spender
	})
}

func (l *PaymentLedger) restore(state *snapshotv1.LedgerState) {
	balances := make(map[string]uint64, len(state.Payments))
	for _, b := range state.Payments {
		if b.Amount > 0 {
			balances[b.Owner] = b.Amount
		}
	}
	allowances := make(map[allowanceKey]uint64, len(state.Allowances))
	for _, a := range state.Allowances {
		if a.Amount > 0 {
			allowances[allowanceKey{a.Owner, a.Spender}] = a.Amount
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = balances
	l.allowances = allowances
}
