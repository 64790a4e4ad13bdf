package exchange

import (
	"context"
	"fmt"
	"math/bits"
	"slices"
	"sort"
	"time"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	ledgerv1 "github.com/999bits/wildfire/internal/domain/ledger/v1"
	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/999bits/wildfire/internal/usecase/escrow"
	"github.com/999bits/wildfire/internal/usecase/pricebook"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
)

// Exchange is the escrow order book of one pair. Every method must be called
// from a single goroutine; a rejected call leaves the state untouched.
type Exchange struct {
	operator string
	trade    ledgerv1.TradeLedger
	payment  ledgerv1.PaymentLedger

	book   *pricebook.Book
	escrow *escrow.Ledger
	orders map[uint64]*orderbookv1.Order
	nextID uint64

	events eventv1.Buffer
	logger logger.Interface
	now    func() time.Time
}

// Option customises an Exchange.
type Option func(*Exchange)

// WithClock replaces the clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Exchange) {
		e.now = now
	}
}

// New creates an empty Exchange. operator is the custody identity the exchange
// uses on both ledgers to hold collateral.
func New(operator string, trade ledgerv1.TradeLedger, payment ledgerv1.PaymentLedger, log logger.Interface, opts ...Option) *Exchange {
	e := &Exchange{
		operator: operator,
		trade:    trade,
		payment:  payment,
		book:     pricebook.New(),
		escrow:   escrow.New(),
		orders:   make(map[uint64]*orderbookv1.Order),
		nextID:   1,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Operator returns the custody identity of the exchange.
func (e *Exchange) Operator() string {
	return e.operator
}

// DrainEvents returns the lifecycle events emitted since the previous call.
func (e *Exchange) DrainEvents() []eventv1.Event {
	return e.events.Drain()
}

// IndexOfPrice returns the position of price among the active levels of side, best first.
func (e *Exchange) IndexOfPrice(price uint64, side orderbookv1.Side) (int, error) {
	if err := validSide(side); err != nil {
		return 0, err
	}
	return e.book.IndexOfPrice(side, price)
}

// BestQuote returns the best sell and buy level.
func (e *Exchange) BestQuote() orderbookv1.Quote {
	return e.book.BestQuote()
}

// AllOrders returns the order ids queued at a level in FIFO order.
func (e *Exchange) AllOrders(side orderbookv1.Side, price uint64) ([]uint64, error) {
	if err := validSide(side); err != nil {
		return nil, err
	}
	return e.book.AllOrders(side, price), nil
}

// GetDeposits returns the collateral user has locked in asset.
func (e *Exchange) GetDeposits(user string, asset orderbookv1.AssetID) uint64 {
	return e.escrow.Get(user, asset)
}

// TotalDeposits returns the collateral locked in asset by every user.
func (e *Exchange) TotalDeposits(asset orderbookv1.AssetID) uint64 {
	return e.escrow.Total(asset)
}

// OrderBookLevel describes a level addressed by the asset its orders lock:
// trade lots address the sell side, the payment asset the buy side.
func (e *Exchange) OrderBookLevel(asset orderbookv1.AssetID, price uint64) (orderbookv1.LevelInfo, error) {
	side, ok := asset.Side()
	if !ok {
		return orderbookv1.LevelInfo{}, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "unknown asset %q", asset)
	}
	return e.book.Level(side, price), nil
}

// Order returns a copy of an order, terminal ones included.
func (e *Exchange) Order(id uint64) (orderbookv1.Order, error) {
	order, ok := e.orders[id]
	if !ok {
		return orderbookv1.Order{}, orderbookv1.NewError(orderbookv1.KindNotFound, "order %d not found", id)
	}
	return *order, nil
}

// Depth lists the active levels of side, best first.
func (e *Exchange) Depth(side orderbookv1.Side) ([]orderbookv1.LevelInfo, error) {
	if err := validSide(side); err != nil {
		return nil, err
	}
	return e.book.Levels(side), nil
}

// Snapshot captures the orders, level queues and escrow balances.
func (e *Exchange) Snapshot() snapshotv1.ExchangeState {
	orders := make([]orderbookv1.Order, 0, len(e.orders))
	for _, order := range e.orders {
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	return snapshotv1.ExchangeState{
		NextOrderID: e.nextID,
		Orders:      orders,
		Levels:      e.book.Snapshot(),
		Escrow:      e.escrow.Entries(),
	}
}

// Restore replaces the exchange state after checking it is self consistent:
// every active order is queued once at its own level and escrow equals the
// collateral of the active orders.
func (e *Exchange) Restore(state snapshotv1.ExchangeState) error {
	if state.NextOrderID == 0 {
		return restoreError("next order id is zero")
	}

	orders := make(map[uint64]*orderbookv1.Order, len(state.Orders))
	collateral := escrow.New()
	for i := range state.Orders {
		order := state.Orders[i]
		switch {
		case order.ID == 0 || order.ID >= state.NextOrderID:
			return restoreError("order %d outside id range [1, %d)", order.ID, state.NextOrderID)
		case orders[order.ID] != nil:
			return restoreError("duplicate order %d", order.ID)
		case validSide(order.Side) != nil:
			return restoreError("order %d has invalid side %d", order.ID, order.Side)
		case order.IsActive() != (order.RemainingAmount > 0):
			return restoreError("order %d is %s with remaining %d", order.ID, order.Status, order.RemainingAmount)
		case order.RemainingAmount > order.OriginalAmount:
			return restoreError("order %d remaining %d exceeds original %d", order.ID, order.RemainingAmount, order.OriginalAmount)
		}
		orders[order.ID] = &order
		if order.IsActive() {
			asset, amount := order.Collateral(order.RemainingAmount)
			if order.Side == orderbookv1.SideBuy {
				var err error
				if amount, err = paymentFor(order.Price, order.RemainingAmount); err != nil {
					return restoreError("order %d collateral: %w", order.ID, err)
				}
			}
			if err := collateral.TryLock(order.Creator, asset, amount); err != nil {
				return restoreError("order %d collateral: %w", order.ID, err)
			}
		}
	}

	queued := make(map[uint64]bool)
	for _, lvl := range state.Levels {
		for _, id := range lvl.Queue {
			order, ok := orders[id]
			switch {
			case !ok || !order.IsActive():
				return restoreError("%s level %d queues inactive order %d", lvl.Side, lvl.Price, id)
			case order.Side != lvl.Side || order.Price != lvl.Price:
				return restoreError("order %d queued at %s level %d", id, lvl.Side, lvl.Price)
			case queued[id]:
				return restoreError("order %d queued twice", id)
			}
			queued[id] = true
		}
	}
	for id, order := range orders {
		if order.IsActive() && !queued[id] {
			return restoreError("active order %d is not queued", id)
		}
	}

	ledger := escrow.New()
	if err := ledger.Restore(state.Escrow); err != nil {
		return restoreError("escrow: %w", err)
	}
	if !slices.Equal(ledger.Entries(), collateral.Entries()) {
		return restoreError("escrow does not match the collateral of active orders")
	}

	book := pricebook.New()
	if err := book.Restore(state.Levels, func(id uint64) (uint64, bool) {
		return orders[id].RemainingAmount, true
	}); err != nil {
		return err
	}

	e.orders = orders
	e.book = book
	e.escrow = ledger
	e.nextID = state.NextOrderID
	e.events.Drain()
	return nil
}

func restoreError(format string, args ...any) error {
	return errors.NewTracer(string(errors.SnapshotRestoreError)).Wrap(fmt.Errorf(format, args...))
}

func validSide(side orderbookv1.Side) error {
	if side != orderbookv1.SideSell && side != orderbookv1.SideBuy {
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "invalid side %d", side)
	}
	return nil
}

// paymentFor returns price × amount, failing when the product does not fit in uint64.
func paymentFor(price, amount uint64) (uint64, error) {
	hi, lo := bits.Mul64(price, amount)
	if hi != 0 {
		return 0, orderbookv1.NewError(orderbookv1.KindInvalidArgument, "price %d × amount %d overflows", price, amount)
	}
	return lo, nil
}

// ledgerError wraps a failed ledger call so its stack reaches the logger.
func ledgerError(err error, format string, args ...any) error {
	return orderbookv1.WrapError(orderbookv1.KindTransferFailed, errors.TracerFromError(err), format, args...)
}

// done logs an accepted entrypoint.
func (e *Exchange) done(ctx context.Context, op string, order *orderbookv1.Order, fields ...logger.Field) {
	fields = append(fields,
		logger.NewField("action", op),
		logger.NewField("orderID", order.ID),
		logger.NewField("side", order.Side.String()),
		logger.NewField("price", order.Price),
		logger.NewField("remaining", order.RemainingAmount),
		logger.NewField("status", order.Status.String()),
	)
	e.logger.InfoContext(ctx, "exchange operation applied", fields...)
}

// reject logs a refused entrypoint and returns err unchanged.
func (e *Exchange) reject(ctx context.Context, op string, err error) error {
	field := logger.NewField("action", op)
	switch orderbookv1.KindOf(err) {
	case orderbookv1.KindTransferFailed, orderbookv1.KindSettlementDiverged:
		e.logger.ErrorContext(ctx, err, field)
	default:
		e.logger.DebugContext(ctx, "exchange operation rejected", field, logger.NewField("error", err.Error()))
	}
	return err
}
