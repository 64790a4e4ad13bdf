package orderbookv1

import "fmt"

// Kind classifies why an entrypoint rejected a call.
type Kind string

const (
	// KindInvalidArgument is a malformed request: zero price or amount, empty identity, overflow.
	KindInvalidArgument Kind = "invalid_argument"
	// KindUnauthorized is a caller acting on somebody else's order or without operator approval.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound is a missing order or price level.
	KindNotFound Kind = "not_found"
	// KindInvalidState is an operation on a filled or cancelled order.
	KindInvalidState Kind = "invalid_state"
	// KindInsufficientBalance is a caller that cannot provide the collateral or leg it owes.
	KindInsufficientBalance Kind = "insufficient_balance"
	// KindInsufficientEscrow is an escrow release larger than what is locked. Unreachable with correct bookkeeping.
	KindInsufficientEscrow Kind = "insufficient_escrow"
	// KindTransferFailed is a ledger collaborator refusing a transfer.
	KindTransferFailed Kind = "transfer_failed"
	// KindSettlementDiverged is a failed compensation: ledgers and engine disagree and need an operator.
	KindSettlementDiverged Kind = "settlement_diverged"
)

// Error is the error type returned by every exchange entrypoint.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	// ErrInvalidArgument matches every KindInvalidArgument error.
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	// ErrUnauthorized matches every KindUnauthorized error.
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	// ErrNotFound matches every KindNotFound error.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrInvalidState matches every KindInvalidState error.
	ErrInvalidState = &Error{Kind: KindInvalidState}
	// ErrInsufficientBalance matches every KindInsufficientBalance error.
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	// ErrInsufficientEscrow matches every KindInsufficientEscrow error.
	ErrInsufficientEscrow = &Error{Kind: KindInsufficientEscrow}
	// ErrTransferFailed matches every KindTransferFailed error.
	ErrTransferFailed = &Error{Kind: KindTransferFailed}
	// ErrSettlementDiverged matches every KindSettlementDiverged error.
	ErrSettlementDiverged = &Error{Kind: KindSettlementDiverged}

	// ErrPriceLevelNotFound is returned when a price has no active level on a side.
	ErrPriceLevelNotFound = &Error{Kind: KindNotFound, Message: "price level not found"}
	// ErrOrderNotInLevel is returned when an order id is not queued at the given level.
	ErrOrderNotInLevel = &Error{Kind: KindNotFound, Message: "order not queued at price level"}
)

// NewError builds an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around a collaborator failure.
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels, so errors.Is(err, ErrNotFound) holds for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or an empty Kind when err is not an *Error.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
