package exchange

import (
	"context"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	"github.com/999bits/wildfire/pkg/logger"
)

// CreateSellOrder escrows amount units of lotID from caller and rests a sell order at price.
func (e *Exchange) CreateSellOrder(ctx context.Context, caller string, price, amount, lotID uint64) (orderbookv1.Order, error) {
	const op = "create_sell"

	if err := e.validateCreate(caller, price, amount); err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, err)
	}

	balance, err := e.trade.BalanceOf(ctx, caller, lotID)
	if err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "read lot %d balance of %s", lotID, caller))
	}
	if balance < amount {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindInsufficientBalance,
			"%s holds %d of lot %d, order needs %d", caller, balance, lotID, amount))
	}

	authorized, err := e.trade.IsAuthorized(ctx, caller, e.operator)
	if err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "read operator approval of %s", caller))
	}
	if !authorized {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindUnauthorized,
			"%s has not authorised the exchange on the trade ledger", caller))
	}

	if err := e.trade.Transfer(ctx, e.operator, caller, e.operator, lotID, amount); err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "escrow %d of lot %d from %s", amount, lotID, caller))
	}

	order := e.place(orderbookv1.SideSell, caller, price, amount, lotID)
	e.done(ctx, op, order, logger.NewField("lotID", lotID))
	return *order, nil
}

// CreateBuyOrder escrows price × amount of the payment asset from caller and rests a buy order at price.
func (e *Exchange) CreateBuyOrder(ctx context.Context, caller string, price, amount uint64) (orderbookv1.Order, error) {
	const op = "create_buy"

	if err := e.validateCreate(caller, price, amount); err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, err)
	}
	cost, _ := paymentFor(price, amount)

	balance, err := e.payment.BalanceOf(ctx, caller)
	if err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "read payment balance of %s", caller))
	}
	if balance < cost {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindInsufficientBalance,
			"%s holds %d of the payment asset, order needs %d", caller, balance, cost))
	}

	allowance, err := e.payment.Allowance(ctx, caller, e.operator)
	if err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "read payment allowance of %s", caller))
	}
	if allowance < cost {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindUnauthorized,
			"%s allows the exchange %d of the payment asset, order needs %d", caller, allowance, cost))
	}

	if err := e.payment.TransferFrom(ctx, e.operator, caller, e.operator, cost); err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "escrow %d payment from %s", cost, caller))
	}

	order := e.place(orderbookv1.SideBuy, caller, price, amount, 0)
	e.done(ctx, op, order)
	return *order, nil
}

// CancelSellOrder withdraws a resting sell order and returns its remaining lots to the creator.
func (e *Exchange) CancelSellOrder(ctx context.Context, caller string, price, orderID, lotID uint64) (orderbookv1.Order, error) {
	return e.cancel(ctx, "cancel_sell", orderbookv1.SideSell, caller, price, orderID, lotID)
}

// CancelBuyOrder withdraws a resting buy order and returns its remaining payment to the creator.
// lotID is ignored: buy orders accept any lot.
func (e *Exchange) CancelBuyOrder(ctx context.Context, caller string, price, orderID, lotID uint64) (orderbookv1.Order, error) {
	return e.cancel(ctx, "cancel_buy", orderbookv1.SideBuy, caller, price, orderID, lotID)
}

func (e *Exchange) cancel(ctx context.Context, op string, side orderbookv1.Side, caller string, price, orderID, lotID uint64) (orderbookv1.Order, error) {
	order, ok := e.orders[orderID]
	if !ok || order.Side != side || order.Price != price || (side == orderbookv1.SideSell && order.LotID != lotID) {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindNotFound,
			"no %s order %d at price %d", side, orderID, price))
	}
	if caller != order.Creator {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindUnauthorized,
			"order %d belongs to another creator", orderID))
	}
	if !order.IsActive() {
		return orderbookv1.Order{}, e.reject(ctx, op, orderbookv1.NewError(orderbookv1.KindInvalidState,
			"order %d is %s", orderID, order.Status))
	}

	asset, locked := order.Collateral(order.RemainingAmount)
	var err error
	if side == orderbookv1.SideSell {
		err = e.trade.Transfer(ctx, e.operator, e.operator, order.Creator, order.LotID, locked)
	} else {
		err = e.payment.Transfer(ctx, e.operator, order.Creator, locked)
	}
	if err != nil {
		return orderbookv1.Order{}, e.reject(ctx, op, ledgerError(err, "refund %d of %s to %s", locked, asset, order.Creator))
	}

	mustBook(e.book.Remove(side, price, order.ID, order.RemainingAmount))
	e.escrow.Unlock(order.Creator, asset, locked)
	order.Cancel()
	e.events.Append(eventv1.NewOrderCancelled(e.now(), order))

	e.done(ctx, op, order, logger.NewField("refunded", locked))
	return *order, nil
}

func (e *Exchange) validateCreate(caller string, price, amount uint64) error {
	switch {
	case caller == "":
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "caller is empty")
	case caller == e.operator:
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "the custody account cannot trade")
	case price == 0:
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "price must be positive")
	case amount == 0:
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "amount must be positive")
	}
	_, err := paymentFor(price, amount)
	return err
}

// place records a funded order, queues it and locks its collateral.
func (e *Exchange) place(side orderbookv1.Side, creator string, price, amount, lotID uint64) *orderbookv1.Order {
	order := &orderbookv1.Order{
		ID:              e.nextID,
		Side:            side,
		Price:           price,
		RemainingAmount: amount,
		OriginalAmount:  amount,
		Creator:         creator,
		LotID:           lotID,
		Status:          orderbookv1.StatusOpen,
	}
	e.nextID++

	e.orders[order.ID] = order
	e.book.Insert(side, price, order.ID, amount)
	asset, locked := order.Collateral(amount)
	e.escrow.Lock(creator, asset, locked)
	e.events.Append(eventv1.NewOrderCreated(e.now(), order))
	return order
}

// mustBook panics when the book disagrees with the order arena.
func mustBook(err error) {
	if err != nil {
		panic("exchange: order arena and price book diverged: " + err.Error())
	}
}
