package orderbookv1

import "fmt"

// Side is the side of the book an order rests on.
type Side uint8

const (
	// SideSell is an order offering the trade asset.
	SideSell Side = iota
	// SideBuy is an order offering the payment asset.
	SideBuy
)

func (s Side) String() string {
	switch s {
	case SideSell:
		return "sell"
	case SideBuy:
		return "buy"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideSell {
		return SideBuy
	}
	return SideSell
}

// Status is the lifecycle state of an order.
type Status uint8

const (
	// StatusOpen is a resting order with no fills yet.
	StatusOpen Status = iota
	// StatusPartiallyFilled is a resting order with at least one fill.
	StatusPartiallyFilled
	// StatusFilled is terminal: the whole amount was settled.
	StatusFilled
	// StatusCancelled is terminal: the creator withdrew the order.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// IsTerminal reports whether no further operation may touch an order in this state.
func (s Status) IsTerminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Order is a single order tracked by the exchange.
type Order struct {
	ID              uint64 `json:"id"`
	Side            Side   `json:"side"`
	Price           uint64 `json:"price"`
	RemainingAmount uint64 `json:"remainingAmount"`
	OriginalAmount  uint64 `json:"originalAmount"`
	Creator         string `json:"creator"`
	LotID           uint64 `json:"lotID"` // zero for buy orders, which accept any lot
	Status          Status `json:"status"`
}

// IsActive reports whether the order is still resting in the book.
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// FilledAmount returns how much of the order has been settled so far.
func (o *Order) FilledAmount() uint64 {
	if o.Status == StatusCancelled {
		return 0
	}
	return o.OriginalAmount - o.RemainingAmount
}

// Collateral returns the escrowed asset and quantity backing amount units of this order.
func (o *Order) Collateral(amount uint64) (AssetID, uint64) {
	if o.Side == SideSell {
		return TradeLot(o.LotID), amount
	}
	return PaymentAsset, o.Price * amount
}

// Fill reduces the remaining amount and moves the order forward in its lifecycle.
// It panics when the fill exceeds the remaining amount.
func (o *Order) Fill(amount uint64) {
	if amount > o.RemainingAmount {
		panic(fmt.Sprintf("order %d: fill %d exceeds remaining %d", o.ID, amount, o.RemainingAmount))
	}
	o.RemainingAmount -= amount
	if o.RemainingAmount == 0 {
		o.Status = StatusFilled
		return
	}
	o.Status = StatusPartiallyFilled
}

// Cancel moves a resting order to the cancelled state.
func (o *Order) Cancel() {
	o.RemainingAmount = 0
	o.Status = StatusCancelled
}
