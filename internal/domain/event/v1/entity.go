package eventv1

import (
	"time"

	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	"github.com/oklog/ulid/v2"
)

// Type is the kind of order lifecycle event.
type Type string

const (
	// TypeOrderCreated is emitted when an order starts resting in the book.
	TypeOrderCreated Type = "order_created"
	// TypeOrderCancelled is emitted when the creator withdrew an order.
	TypeOrderCancelled Type = "order_cancelled"
	// TypeOrderFilled is emitted when a fulfilment consumed the resting order.
	TypeOrderFilled Type = "order_filled"
	// TypeOrderPartiallyFilled is emitted when a fulfilment left an amount resting.
	TypeOrderPartiallyFilled Type = "order_partially_filled"
)

// Event is one order lifecycle notification.
type Event struct {
	ID        string           `json:"id"`
	Type      Type             `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	OrderID   uint64           `json:"orderID"`
	Side      orderbookv1.Side `json:"side"`
	Price     uint64           `json:"price"`
	LotID     uint64           `json:"lotID"`

	// Creator is set on created and cancelled events.
	Creator string `json:"creator,omitempty"`

	// Maker, Taker, Amount and Remaining are set on fill events.
	Maker     string `json:"maker,omitempty"`
	Taker     string `json:"taker,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Remaining uint64 `json:"remaining,omitempty"`
}

// NewOrderCreated builds the event for a newly resting order.
func NewOrderCreated(at time.Time, order *orderbookv1.Order) Event {
	e := newEvent(TypeOrderCreated, at, order)
	e.Creator = order.Creator
	e.Amount = order.OriginalAmount
	return e
}

// NewOrderCancelled builds the event for a withdrawn order.
func NewOrderCancelled(at time.Time, order *orderbookv1.Order) Event {
	e := newEvent(TypeOrderCancelled, at, order)
	e.Creator = order.Creator
	return e
}

// NewOrderFill builds a filled or partially filled event depending on what is left of the order.
func NewOrderFill(at time.Time, order *orderbookv1.Order, taker string, amount, lotID uint64) Event {
	typ := TypeOrderPartiallyFilled
	if order.RemainingAmount == 0 {
		typ = TypeOrderFilled
	}
	e := newEvent(typ, at, order)
	e.LotID = lotID
	e.Maker = order.Creator
	e.Taker = taker
	e.Amount = amount
	e.Remaining = order.RemainingAmount
	return e
}

func newEvent(typ Type, at time.Time, order *orderbookv1.Order) Event {
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Type:      typ,
		Timestamp: at,
		OrderID:   order.ID,
		Side:      order.Side,
		Price:     order.Price,
		LotID:     order.LotID,
	}
}

// Buffer collects events produced while applying one command.
type Buffer struct {
	events []Event
}

// Append records events in emission order.
func (b *Buffer) Append(events ...Event) {
	b.events = append(b.events, events...)
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Drain returns the pending events and empties the buffer.
func (b *Buffer) Drain() []Event {
	events := b.events
	b.events = nil
	return events
}
