package exchange

import (
	"context"
	"fmt"
	"math"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"go.uber.org/multierr"
)

// step is one custody movement of a settlement and the movement that reverts it.
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// FulfillSellOrder buys from the earliest sell order maker rests at price for lotID.
// The fill is capped by the order remaining and by what taker can pay.
func (e *Exchange) FulfillSellOrder(ctx context.Context, taker, maker string, price, amount, lotID uint64) (orderbookv1.Fill, error) {
	const op = "fulfill_sell"

	order, err := e.resting(orderbookv1.SideSell, taker, maker, price, amount, func(o *orderbookv1.Order) bool {
		return o.LotID == lotID
	})
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	balance, err := e.payment.BalanceOf(ctx, taker)
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, ledgerError(err, "read payment balance of %s", taker))
	}
	allowance, err := e.payment.Allowance(ctx, taker, e.operator)
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, ledgerError(err, "read payment allowance of %s", taker))
	}

	fill := min(amount, order.RemainingAmount, min(balance, allowance)/price)
	if fill == 0 {
		return orderbookv1.Fill{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindInsufficientBalance,
			"%s can pay %d with allowance %d, one unit costs %d", taker, balance, allowance, price))
	}
	pay := price * fill

	// Every leg after collect moves units out of custody, and undoing one
	// needs the receiver's consent, so they are checked up front.
	checks := []func(context.Context) error{
		func(ctx context.Context) error { return e.lotCustodyCovers(ctx, lotID, fill) },
		func(ctx context.Context) error { return e.lotsReceivable(ctx, taker, lotID, fill) },
		func(ctx context.Context) error { return e.paymentReceivable(ctx, e.operator, pay) },
	}
	if maker != taker {
		checks = append(checks, func(ctx context.Context) error { return e.paymentReceivable(ctx, maker, pay) })
	}
	if err := preflight(ctx, checks...); err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	err = e.settle(ctx, op, []step{
		{
			name: "collect payment",
			do: func(ctx context.Context) error {
				return e.payment.TransferFrom(ctx, e.operator, taker, e.operator, pay)
			},
			undo: func(ctx context.Context) error {
				return e.payment.Transfer(ctx, e.operator, taker, pay)
			},
		},
		{
			name: "release lots",
			do: func(ctx context.Context) error {
				return e.trade.Transfer(ctx, e.operator, e.operator, taker, lotID, fill)
			},
			undo: func(ctx context.Context) error {
				return e.trade.Transfer(ctx, e.operator, taker, e.operator, lotID, fill)
			},
		},
		{
			name: "forward payment",
			do: func(ctx context.Context) error {
				return e.payment.Transfer(ctx, e.operator, maker, pay)
			},
		},
	})
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	return e.applyFill(ctx, op, order, taker, fill, pay, lotID), nil
}

// FulfillBuyOrder sells lotID into the earliest buy order maker rests at price.
// The fill is capped by the order remaining and by the lots taker holds.
func (e *Exchange) FulfillBuyOrder(ctx context.Context, taker, maker string, price, amount, lotID uint64) (orderbookv1.Fill, error) {
	const op = "fulfill_buy"

	order, err := e.resting(orderbookv1.SideBuy, taker, maker, price, amount, nil)
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	authorized, err := e.trade.IsAuthorized(ctx, taker, e.operator)
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, ledgerError(err, "read operator approval of %s", taker))
	}
	if !authorized {
		return orderbookv1.Fill{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindUnauthorized,
			"%s has not authorised the exchange on the trade ledger", taker))
	}
	balance, err := e.trade.BalanceOf(ctx, taker, lotID)
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, ledgerError(err, "read lot %d balance of %s", lotID, taker))
	}

	fill := min(amount, order.RemainingAmount, balance)
	if fill == 0 {
		return orderbookv1.Fill{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindInsufficientBalance,
			"%s holds no units of lot %d", taker, lotID))
	}
	pay := price * fill

	checks := []func(context.Context) error{
		func(ctx context.Context) error { return e.lotsReceivable(ctx, e.operator, lotID, fill) },
		func(ctx context.Context) error { return e.paymentCustodyCovers(ctx, pay) },
		func(ctx context.Context) error { return e.paymentReceivable(ctx, taker, pay) },
	}
	if maker != taker {
		checks = append(checks, func(ctx context.Context) error { return e.lotsReceivable(ctx, maker, lotID, fill) })
	}
	if err := preflight(ctx, checks...); err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	err = e.settle(ctx, op, []step{
		{
			name: "collect lots",
			do: func(ctx context.Context) error {
				return e.trade.Transfer(ctx, e.operator, taker, e.operator, lotID, fill)
			},
			undo: func(ctx context.Context) error {
				return e.trade.Transfer(ctx, e.operator, e.operator, taker, lotID, fill)
			},
		},
		{
			name: "release payment",
			do: func(ctx context.Context) error {
				return e.payment.Transfer(ctx, e.operator, taker, pay)
			},
			undo: func(ctx context.Context) error {
				return e.payment.TransferFrom(ctx, e.operator, taker, e.operator, pay)
			},
		},
		{
			name: "forward lots",
			do: func(ctx context.Context) error {
				return e.trade.Transfer(ctx, e.operator, e.operator, maker, lotID, fill)
			},
		},
	})
	if err != nil {
		return orderbookv1.Fill{}, e.reject(ctx, op, err)
	}

	return e.applyFill(ctx, op, order, taker, fill, pay, lotID), nil
}

// resting validates a fulfilment and returns the earliest active order of maker at price.
func (e *Exchange) resting(side orderbookv1.Side, taker, maker string, price, amount uint64, match func(*orderbookv1.Order) bool) (*orderbookv1.Order, error) {
	switch {
	case taker == "":
		return nil, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "taker is empty")
	case taker == e.operator:
		return nil, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "the custody account cannot trade")
	case maker == "":
		return nil, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "maker is empty")
	case price == 0:
		return nil, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "price must be positive")
	case amount == 0:
		return nil, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "amount must be positive")
	}

	id, ok := e.book.Find(side, price, func(id uint64) bool {
		o := e.orders[id]
		return o.IsActive() && o.Creator == maker && (match == nil || match(o))
	})
	if !ok {
		return nil, orderbookv1.NewError(orderbookv1.KindNotFound, "no %s order of %s at price %d", side, maker, price)
	}
	return e.orders[id], nil
}

func preflight(ctx context.Context, checks ...func(context.Context) error) error {
	for _, check := range checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// lotsReceivable fails when owner's lot balance cannot take amount more units.
func (e *Exchange) lotsReceivable(ctx context.Context, owner string, lotID, amount uint64) error {
	balance, err := e.trade.BalanceOf(ctx, owner, lotID)
	if err != nil {
		return ledgerError(err, "read lot %d balance of %s", lotID, owner)
	}
	if balance > math.MaxUint64-amount {
		return orderbookv1.NewError(orderbookv1.KindTransferFailed,
			"lot %d balance %d of %s cannot take %d more", lotID, balance, owner, amount)
	}
	return nil
}

// paymentReceivable fails when owner's payment balance cannot take amount more.
func (e *Exchange) paymentReceivable(ctx context.Context, owner string, amount uint64) error {
	balance, err := e.payment.BalanceOf(ctx, owner)
	if err != nil {
		return ledgerError(err, "read payment balance of %s", owner)
	}
	if balance > math.MaxUint64-amount {
		return orderbookv1.NewError(orderbookv1.KindTransferFailed,
			"payment balance %d of %s cannot take %d more", balance, owner, amount)
	}
	return nil
}

func (e *Exchange) lotCustodyCovers(ctx context.Context, lotID, amount uint64) error {
	custody, err := e.trade.BalanceOf(ctx, e.operator, lotID)
	if err != nil {
		return ledgerError(err, "read lot %d custody", lotID)
	}
	if custody < amount {
		return orderbookv1.NewError(orderbookv1.KindInsufficientEscrow,
			"custody holds %d of lot %d, settlement releases %d", custody, lotID, amount)
	}
	return nil
}

func (e *Exchange) paymentCustodyCovers(ctx context.Context, amount uint64) error {
	custody, err := e.payment.BalanceOf(ctx, e.operator)
	if err != nil {
		return ledgerError(err, "read payment custody")
	}
	if custody < amount {
		return orderbookv1.NewError(orderbookv1.KindInsufficientEscrow,
			"custody holds %d payment, settlement releases %d", custody, amount)
	}
	return nil
}

// settle runs the custody steps in order. When one fails, the completed steps
// are reverted newest first; any failed revert leaves the ledgers diverged.
func (e *Exchange) settle(ctx context.Context, op string, steps []step) error {
	for i, s := range steps {
		err := s.do(ctx)
		if err == nil {
			continue
		}

		var revertErr error
		revertCtx := context.WithoutCancel(ctx)
		for j := i - 1; j >= 0; j-- {
			if steps[j].undo == nil {
				continue
			}
			if uerr := steps[j].undo(revertCtx); uerr != nil {
				revertErr = multierr.Append(revertErr, fmt.Errorf("revert %s: %w", steps[j].name, uerr))
			}
		}
		if revertErr == nil {
			return ledgerError(err, "%s", s.name)
		}

		diverged := orderbookv1.WrapError(orderbookv1.KindSettlementDiverged,
			errors.TracerFromError(multierr.Combine(err, revertErr)),
			"%s failed and could not be reverted", s.name)
		e.logger.ErrorContext(ctx, diverged,
			logger.NewField("action", op),
			logger.NewField("severity", string(errors.SeverityCritical)),
		)
		return diverged
	}
	return nil
}

// applyFill books a settled fill against the resting order and emits its event.
func (e *Exchange) applyFill(ctx context.Context, op string, order *orderbookv1.Order, taker string, fill, pay, lotID uint64) orderbookv1.Fill {
	asset, locked := order.Collateral(fill)
	e.escrow.Unlock(order.Creator, asset, locked)

	order.Fill(fill)
	if order.RemainingAmount == 0 {
		mustBook(e.book.Remove(order.Side, order.Price, order.ID, fill))
	} else {
		mustBook(e.book.Reduce(order.Side, order.Price, fill))
	}
	e.events.Append(eventv1.NewOrderFill(e.now(), order, taker, fill, lotID))

	e.done(ctx, op, order,
		logger.NewField("maker", order.Creator),
		logger.NewField("taker", taker),
		logger.NewField("fill", fill),
		logger.NewField("payment", pay),
	)

	return orderbookv1.Fill{
		Order:     *order,
		Maker:     order.Creator,
		Taker:     taker,
		Amount:    fill,
		Payment:   pay,
		Remaining: order.RemainingAmount,
	}
}
