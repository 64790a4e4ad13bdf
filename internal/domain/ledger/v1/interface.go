package ledgerv1

import "context"

// TradeLedger is the lot-based trade asset ledger. An operator moves lots on
// behalf of an owner once the owner authorised it.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=ledgerv1_mock
type TradeLedger interface {
	Mint(ctx context.Context, to string, lotID, amount uint64) error
	Transfer(ctx context.Context, operator, from, to string, lotID, amount uint64) error
	AuthorizeOperator(ctx context.Context, owner, operator string, approved bool) error
	BalanceOf(ctx context.Context, owner string, lotID uint64) (uint64, error)
	IsAuthorized(ctx context.Context, owner, operator string) (bool, error)
}

// PaymentLedger is the fungible payment asset ledger with spending allowances.
type PaymentLedger interface {
	Deposit(ctx context.Context, to string, amount uint64) error
	Approve(ctx context.Context, owner, spender string, amount uint64) error
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
	Transfer(ctx context.Context, from, to string, amount uint64) error
	TransferFrom(ctx context.Context, spender, from, to string, amount uint64) error
	BalanceOf(ctx context.Context, owner string) (uint64, error)
}
