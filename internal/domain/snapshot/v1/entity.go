package snapshotv1

import orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"

// Snapshot is the whole engine state at a command offset.
type Snapshot struct {
	Pair          string `json:"pair"`
	CommandOffset int64  `json:"commandOffset"`
	ExchangeState `json:"exchange"`
	Ledgers       *LedgerState `json:"ledgers,omitempty"`
}

// ExchangeState is what the exchange needs to resume: orders, queues and escrow.
type ExchangeState struct {
	NextOrderID uint64              `json:"nextOrderID"`
	Orders      []orderbookv1.Order `json:"orders"`
	Levels      []Level             `json:"levels"`
	Escrow      []EscrowEntry       `json:"escrow"`
}

// Level is one price level queue in FIFO order. Emptied levels are kept with an empty queue.
type Level struct {
	Side  orderbookv1.Side `json:"side"`
	Price uint64           `json:"price"`
	Queue []uint64         `json:"queue"`
}

// EscrowEntry is the locked balance of one user for one asset.
type EscrowEntry struct {
	User   string              `json:"user"`
	Asset  orderbookv1.AssetID `json:"asset"`
	Amount uint64              `json:"amount"`
}

// LedgerState is the content of the in-memory ledgers used by dev deployments.
type LedgerState struct {
	Lots       []LotBalance `json:"lots"`
	Operators  []Operator   `json:"operators"`
	Payments   []Balance    `json:"payments"`
	Allowances []Allowance  `json:"allowances"`
}

// LotBalance is how much of a trade lot an owner holds.
type LotBalance struct {
	Owner  string `json:"owner"`
	LotID  uint64 `json:"lotID"`
	Amount uint64 `json:"amount"`
}

// Operator is an owner's approval of an operator on the trade ledger.
type Operator struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// Balance is an owner's payment asset balance.
type Balance struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

// Allowance is how much a spender may move out of an owner's payment balance.
type Allowance struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}
