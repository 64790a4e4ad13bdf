package commandv1

import (
	"fmt"

	"github.com/999bits/wildfire/pkg/errors"
)

// Type is the operation a command asks the engine to apply.
type Type string

const (
	TypeCreateSell  Type = "create_sell"
	TypeCreateBuy   Type = "create_buy"
	TypeCancelSell  Type = "cancel_sell"
	TypeCancelBuy   Type = "cancel_buy"
	TypeFulfillSell Type = "fulfill_sell"
	TypeFulfillBuy  Type = "fulfill_buy"

	// Dev ledger commands, accepted only while the in-memory ledgers back the engine.
	TypeMint              Type = "mint"
	TypeDeposit           Type = "deposit"
	TypeApprove           Type = "approve"
	TypeAuthorizeOperator Type = "authorize_operator"
)

// IsLedger reports whether the command targets the dev ledgers instead of the exchange.
func (t Type) IsLedger() bool {
	switch t {
	case TypeMint, TypeDeposit, TypeApprove, TypeAuthorizeOperator:
		return true
	}
	return false
}

func (t Type) valid() bool {
	switch t {
	case TypeCreateSell, TypeCreateBuy, TypeCancelSell, TypeCancelBuy, TypeFulfillSell, TypeFulfillBuy:
		return true
	}
	return t.IsLedger()
}

// Command is one message of the command topic.
type Command struct {
	RequestID string `json:"requestID,omitempty"`
	Type      Type   `json:"type"`
	Caller    string `json:"caller"`

	Price   uint64 `json:"price,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	LotID   uint64 `json:"lotID,omitempty"`
	OrderID uint64 `json:"orderID,omitempty"`

	// Maker is the creator of the resting order a fulfil command targets.
	Maker string `json:"maker,omitempty"`
	// Spender is the approved party of an approve command.
	Spender string `json:"spender,omitempty"`
	// Operator and Approved describe an authorize_operator command.
	Operator string `json:"operator,omitempty"`
	Approved bool   `json:"approved,omitempty"`

	Offset int64 `json:"-"`
}

// Validate rejects commands that can never be applied. Argument checks belong to the exchange.
func (c *Command) Validate() error {
	if !c.Type.valid() {
		return errors.NewErrorDetails(fmt.Sprintf("unknown command type %q", c.Type), string(errors.KafkaDecodeError), "type")
	}
	if c.Caller == "" {
		return errors.NewErrorDetails("command caller is empty", string(errors.KafkaDecodeError), "caller")
	}
	return nil
}
