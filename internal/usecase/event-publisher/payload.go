package eventpublisher

import (
	"encoding/json"
	"math/big"
	"time"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	"github.com/shopspring/decimal"
)

// Payload is the wire form of a lifecycle event on the events topic.
type Payload struct {
	ID        string    `json:"id"`
	Pair      string    `json:"pair"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	OrderID   uint64    `json:"orderID"`
	Side      string    `json:"side"`

	// Price is the fixed-point price rendered with the configured decimals.
	// PriceUnits keeps the raw integer.
	Price      decimal.Decimal `json:"price"`
	PriceUnits uint64          `json:"priceUnits"`

	LotID     uint64 `json:"lotID"`
	Creator   string `json:"creator,omitempty"`
	Maker     string `json:"maker,omitempty"`
	Taker     string `json:"taker,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Remaining uint64 `json:"remaining,omitempty"`
}

// NewPayload converts an event for the given pair.
func NewPayload(pair string, priceDecimals int32, e eventv1.Event) Payload {
	return Payload{
		ID:         e.ID,
		Pair:       pair,
		Type:       string(e.Type),
		Timestamp:  e.Timestamp,
		OrderID:    e.OrderID,
		Side:       e.Side.String(),
		Price:      FormatPrice(e.Price, priceDecimals),
		PriceUnits: e.Price,
		LotID:      e.LotID,
		Creator:    e.Creator,
		Maker:      e.Maker,
		Taker:      e.Taker,
		Amount:     e.Amount,
		Remaining:  e.Remaining,
	}
}

// FormatPrice shifts an integer price by decimals places.
func FormatPrice(price uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(price), -decimals)
}

// ToBytes converts the payload to JSON.
func (p Payload) ToBytes() ([]byte, error) {
	return json.Marshal(p)
}
