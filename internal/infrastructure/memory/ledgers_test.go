package memory

import (
	"context"
	"testing"

	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeLedger_Transfer(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		setup     func(*TradeLedger)
		operator  string
		amount    uint64
		wantErr   error
		wantAlice uint64
		wantBob   uint64
	}{
		{
			name:      "owner moves own lots",
			operator:  "alice",
			amount:    4,
			wantAlice: 6,
			wantBob:   4,
		},
		{
			name: "authorised operator",
			setup: func(l *TradeLedger) {
				require.NoError(t, l.AuthorizeOperator(ctx, "alice", "engine", true))
			},
			operator:  "engine",
			amount:    10,
			wantAlice: 0,
			wantBob:   10,
		},
		{
			name:      "unauthorised operator",
			operator:  "engine",
			amount:    1,
			wantErr:   ErrNotAuthorized,
			wantAlice: 10,
		},
		{
			name: "revoked operator",
			setup: func(l *TradeLedger) {
				require.NoError(t, l.AuthorizeOperator(ctx, "alice", "engine", true))
				require.NoError(t, l.AuthorizeOperator(ctx, "alice", "engine", false))
			},
			operator:  "engine",
			amount:    1,
			wantErr:   ErrNotAuthorized,
			wantAlice: 10,
		},
		{
			name:      "insufficient lots",
			operator:  "alice",
			amount:    11,
			wantErr:   ErrInsufficientFunds,
			wantAlice: 10,
		},
		{
			name:      "zero amount",
			operator:  "alice",
			amount:    0,
			wantErr:   ErrInvalidTransfer,
			wantAlice: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewTradeLedger()
			require.NoError(t, ledger.Mint(ctx, "alice", 1, 10))
			if tc.setup != nil {
				tc.setup(ledger)
			}

			err := ledger.Transfer(ctx, tc.operator, "alice", "bob", 1, tc.amount)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}

			alice, _ := ledger.BalanceOf(ctx, "alice", 1)
			bob, _ := ledger.BalanceOf(ctx, "bob", 1)
			assert.Equal(t, tc.wantAlice, alice)
			assert.Equal(t, tc.wantBob, bob)
		})
	}
}

func TestTradeLedger_IsAuthorized(t *testing.T) {
	ctx := context.Background()
	ledger := NewTradeLedger()

	ok, err := ledger.IsAuthorized(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = ledger.IsAuthorized(ctx, "alice", "engine")
	assert.False(t, ok)

	require.NoError(t, ledger.AuthorizeOperator(ctx, "alice", "engine", true))
	ok, _ = ledger.IsAuthorized(ctx, "alice", "engine")
	assert.True(t, ok)
}

func TestPaymentLedger_TransferFrom(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger()
	require.NoError(t, ledger.Deposit(ctx, "bob", 100))

	err := ledger.TransferFrom(ctx, "engine", "bob", "engine", 10)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, ledger.Approve(ctx, "bob", "engine", 30))
	require.NoError(t, ledger.TransferFrom(ctx, "engine", "bob", "engine", 20))

	allowance, _ := ledger.Allowance(ctx, "bob", "engine")
	assert.Equal(t, uint64(10), allowance)
	bob, _ := ledger.BalanceOf(ctx, "bob")
	engine, _ := ledger.BalanceOf(ctx, "engine")
	assert.Equal(t, uint64(80), bob)
	assert.Equal(t, uint64(20), engine)

	err = ledger.TransferFrom(ctx, "engine", "bob", "engine", 11)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, ledger.Approve(ctx, "bob", "engine", 1_000))
	err = ledger.TransferFrom(ctx, "engine", "bob", "engine", 81)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	allowance, _ = ledger.Allowance(ctx, "bob", "engine")
	assert.Equal(t, uint64(1_000), allowance)
}

func TestPaymentLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger()
	require.NoError(t, ledger.Deposit(ctx, "engine", 50))

	require.NoError(t, ledger.Transfer(ctx, "engine", "alice", 50))
	assert.ErrorIs(t, ledger.Transfer(ctx, "engine", "alice", 1), ErrInsufficientFunds)
	assert.ErrorIs(t, ledger.Deposit(ctx, "", 1), ErrInvalidTransfer)

	alice, _ := ledger.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(50), alice)
}

func TestLedgers_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	ledgers := NewLedgers()
	require.NoError(t, ledgers.Trade.Mint(ctx, "alice", 2, 5))
	require.NoError(t, ledgers.Trade.Mint(ctx, "alice", 1, 3))
	require.NoError(t, ledgers.Trade.AuthorizeOperator(ctx, "alice", "engine", true))
	require.NoError(t, ledgers.Payment.Deposit(ctx, "bob", 70))
	require.NoError(t, ledgers.Payment.Approve(ctx, "bob", "engine", 40))

	state := ledgers.SnapshotLedgers()
	assert.Equal(t, &snapshotv1.LedgerState{
		Lots: []snapshotv1.LotBalance{
			{Owner: "alice", LotID: 1, Amount: 3},
			{Owner: "alice", LotID: 2, Amount: 5},
		},
		Operators:  []snapshotv1.Operator{{Owner: "alice", Operator: "engine"}},
		Payments:   []snapshotv1.Balance{{Owner: "bob", Amount: 70}},
		Allowances: []snapshotv1.Allowance{{Owner: "bob", Spender: "engine", Amount: 40}},
	}, state)

	restored := NewLedgers()
	require.NoError(t, restored.Trade.Mint(ctx, "carol", 1, 1))
	require.NoError(t, restored.RestoreLedgers(state))
	assert.Equal(t, state, restored.SnapshotLedgers())

	carol, _ := restored.Trade.BalanceOf(ctx, "carol", 1)
	assert.Equal(t, uint64(0), carol)
	assert.NoError(t, restored.RestoreLedgers(nil))
}
