package memory

import (
	"errors"

	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
)

var (
	// ErrInvalidTransfer is returned for empty identities or zero amounts.
	ErrInvalidTransfer = errors.New("invalid ledger operation")
	// ErrInsufficientFunds is returned when the source balance is too low.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotAuthorized is returned when an operator or spender lacks approval.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrOverflow is returned when a balance would exceed the uint64 range.
	ErrOverflow = errors.New("balance overflow")
)

// Ledgers pairs the in-memory trade and payment ledgers so the engine can snapshot them together.
type Ledgers struct {
	Trade   *TradeLedger
	Payment *PaymentLedger
}

var _ snapshotv1.LedgerSnapshotter = (*Ledgers)(nil)

// NewLedgers creates empty trade and payment ledgers.
func NewLedgers() *Ledgers {
	return &Ledgers{
		Trade:   NewTradeLedger(),
		Payment: NewPaymentLedger(),
	}
}

// SnapshotLedgers captures every balance, operator approval and allowance.
func (l *Ledgers) SnapshotLedgers() *snapshotv1.LedgerState {
	state := &snapshotv1.LedgerState{}
	l.Trade.snapshot(state)
	l.Payment.snapshot(state)
	return state
}

// RestoreLedgers replaces both ledgers with state. A nil state leaves them untouched.
func (l *Ledgers) RestoreLedgers(state *snapshotv1.LedgerState) error {
	if state == nil {
		return nil
	}
	l.Trade.restore(state)
	l.Payment.restore(state)
	return nil
}
