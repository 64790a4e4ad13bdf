package engine

import (
	"context"
	"sync"
	"time"

	commandv1 "github.com/999bits/wildfire/internal/domain/command/v1"
	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/999bits/wildfire/pkg/util"
	"github.com/segmentio/kafka-go"
)

// Exchange is the order book the engine drives.
type Exchange interface {
	CreateSellOrder(ctx context.Context, caller string, price, amount, lotID uint64) (orderbookv1.Order, error)
	CreateBuyOrder(ctx context.Context, caller string, price, amount uint64) (orderbookv1.Order, error)
	CancelSellOrder(ctx context.Context, caller string, price, orderID, lotID uint64) (orderbookv1.Order, error)
	CancelBuyOrder(ctx context.Context, caller string, price, orderID, lotID uint64) (orderbookv1.Order, error)
	FulfillSellOrder(ctx context.Context, taker, maker string, price, amount, lotID uint64) (orderbookv1.Fill, error)
	FulfillBuyOrder(ctx context.Context, taker, maker string, price, amount, lotID uint64) (orderbookv1.Fill, error)

	DrainEvents() []eventv1.Event
	Snapshot() snapshotv1.ExchangeState
	Restore(state snapshotv1.ExchangeState) error
}

// Engine applies commands from the command topic to the exchange on a single goroutine.
type Engine struct {
	exchange      Exchange
	reader        commandv1.Reader
	snapshotStore snapshotv1.Store
	publisher     eventv1.Publisher
	logger        logger.Interface
	options       *Options

	mu                 sync.RWMutex
	commandOffset      int64
	lastSnapshotOffset int64
	lastSnapshotAt     time.Time
	applied            int64
	rejected           int64

	// uncommitted is the last applied message no stored snapshot covers yet.
	// Only the loop goroutine touches it.
	uncommitted *kafka.Message

	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewEngine creates an engine and restores the latest snapshot.
func NewEngine(
	ctx context.Context,
	exchange Exchange,
	reader commandv1.Reader,
	snapshotStore snapshotv1.Store,
	publisher eventv1.Publisher,
	logger logger.Interface,
	options *Options,
) (*Engine, error) {
	if options == nil {
		options = DefaultEngineOptions()
	}

	e := &Engine{
		exchange:           exchange,
		reader:             reader,
		snapshotStore:      snapshotStore,
		publisher:          publisher,
		logger:             logger,
		options:            options,
		commandOffset:      -1,
		lastSnapshotOffset: -1,
		now:                time.Now,
	}
	e.lastSnapshotAt = e.now()

	if err := e.loadSnapshot(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Start positions the reader after the restored offset and starts the command loop.
func (e *Engine) Start(ctx context.Context) error {
	if offset := e.GetCommandOffset(); offset >= 0 {
		if err := e.reader.SetOffset(offset + 1); err != nil {
			return err
		}
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.wg.Add(1)
	go e.run(ctx)

	e.logger.Info("engine started",
		logger.NewField("pair", e.options.Pair),
		logger.NewField("offset", e.GetCommandOffset()),
		logger.NewField("devLedger", e.options.DevLedgers != nil),
	)
	return nil
}

// Stop ends the command loop. The loop stores a final snapshot before it exits.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully", logger.NewField("pair", e.options.Pair))
		return nil
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded", logger.NewField("pair", e.options.Pair))
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	for ctx.Err() == nil {
		e.step(ctx)
	}

	if e.GetCommandOffset() > e.GetLastSnapshotOffset() {
		e.createAndStoreSnapshot(context.WithoutCancel(ctx))
	}
	if err := e.reader.Close(); err != nil {
		e.logger.Error(err, logger.NewField("action", "close_reader"))
	}
}

// step reads and applies at most one command, then considers a snapshot. A read
// waits at most one snapshot interval so idle periods still get snapshots.
func (e *Engine) step(ctx context.Context) {
	readCtx, cancel := context.WithTimeout(ctx, e.options.SnapshotInterval)
	msg, cmd, err := e.reader.ReadMessage(readCtx)
	cancel()

	switch {
	case err == nil:
		e.handle(ctx, msg, cmd)
	case ctx.Err() != nil:
		return
	case readCtx.Err() != nil:
		// idle
	case errors.ErrorCodeEquals(err, errors.KafkaDecodeError):
		e.markRejected()
		e.advance(msg)
	default:
		e.logger.ErrorContext(ctx, err, logger.NewField("action", "read_command"))
		select {
		case <-ctx.Done():
		case <-time.After(e.options.ReadBackoff):
		}
		return
	}

	if e.shouldCreateSnapshot() {
		e.createAndStoreSnapshot(ctx)
	}
}

func (e *Engine) handle(ctx context.Context, msg kafka.Message, cmd *commandv1.Command) {
	ctx = util.WithRequestID(ctx, cmd.RequestID)
	ctx = util.WithActorID(ctx, cmd.Caller)

	if err := e.apply(ctx, cmd); err != nil {
		e.markRejected()
		level := e.logger.DebugContext
		if orderbookv1.KindOf(err) == orderbookv1.KindSettlementDiverged {
			level = e.logger.WarnContext
		}
		level(ctx, "command rejected",
			logger.NewField("type", cmd.Type),
			logger.NewField("offset", msg.Offset),
			logger.NewField("error", err.Error()),
		)
	} else {
		e.mu.Lock()
		e.applied++
		e.mu.Unlock()
	}

	if events := e.exchange.DrainEvents(); len(events) > 0 && e.publisher != nil {
		if err := e.publisher.Publish(ctx, events...); err != nil {
			e.logger.ErrorContext(ctx, err,
				logger.NewField("action", "publish_events"),
				logger.NewField("events", len(events)),
			)
		}
	}

	e.advance(msg)
}

// advance records msg as applied. Its offset is committed to the consumer
// group only once a stored snapshot covers it, so a restart never resumes
// past the restored state.
func (e *Engine) advance(msg kafka.Message) {
	e.setCommandOffset(msg.Offset)
	e.uncommitted = &msg
}

func (e *Engine) commitCovered(ctx context.Context) {
	if e.uncommitted == nil {
		return
	}
	if err := e.reader.CommitMessages(ctx, *e.uncommitted); err != nil {
		e.logger.ErrorContext(ctx, err, logger.NewField("action", "commit_command"))
		return
	}
	e.uncommitted = nil
}

func (e *Engine) markRejected() {
	e.mu.Lock()
	e.rejected++
	e.mu.Unlock()
}

// apply dispatches one command to the exchange or the dev ledgers.
func (e *Engine) apply(ctx context.Context, cmd *commandv1.Command) error {
	var err error
	switch cmd.Type {
	case commandv1.TypeCreateSell:
		_, err = e.exchange.CreateSellOrder(ctx, cmd.Caller, cmd.Price, cmd.Amount, cmd.LotID)
	case commandv1.TypeCreateBuy:
		_, err = e.exchange.CreateBuyOrder(ctx, cmd.Caller, cmd.Price, cmd.Amount)
	case commandv1.TypeCancelSell:
		_, err = e.exchange.CancelSellOrder(ctx, cmd.Caller, cmd.Price, cmd.OrderID, cmd.LotID)
	case commandv1.TypeCancelBuy:
		_, err = e.exchange.CancelBuyOrder(ctx, cmd.Caller, cmd.Price, cmd.OrderID, cmd.LotID)
	case commandv1.TypeFulfillSell:
		_, err = e.exchange.FulfillSellOrder(ctx, cmd.Caller, cmd.Maker, cmd.Price, cmd.Amount, cmd.LotID)
	case commandv1.TypeFulfillBuy:
		_, err = e.exchange.FulfillBuyOrder(ctx, cmd.Caller, cmd.Maker, cmd.Price, cmd.Amount, cmd.LotID)
	default:
		err = e.applyLedger(ctx, cmd)
	}
	return err
}

func (e *Engine) applyLedger(ctx context.Context, cmd *commandv1.Command) error {
	ledgers := e.options.DevLedgers
	if ledgers == nil {
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "command %s needs the dev ledger", cmd.Type)
	}

	var err error
	switch cmd.Type {
	case commandv1.TypeMint:
		err = ledgers.Trade.Mint(ctx, cmd.Caller, cmd.LotID, cmd.Amount)
	case commandv1.TypeDeposit:
		err = ledgers.Payment.Deposit(ctx, cmd.Caller, cmd.Amount)
	case commandv1.TypeApprove:
		err = ledgers.Payment.Approve(ctx, cmd.Caller, cmd.Spender, cmd.Amount)
	case commandv1.TypeAuthorizeOperator:
		err = ledgers.Trade.AuthorizeOperator(ctx, cmd.Caller, cmd.Operator, cmd.Approved)
	default:
		return orderbookv1.NewError(orderbookv1.KindInvalidArgument, "unknown command %q", cmd.Type)
	}
	if err != nil {
		return orderbookv1.WrapError(orderbookv1.KindInvalidArgument, err, "%s", cmd.Type)
	}

	e.logger.InfoContext(ctx, "dev ledger command applied",
		logger.NewField("type", cmd.Type),
		logger.NewField("caller", cmd.Caller),
		logger.NewField("amount", cmd.Amount),
	)
	return nil
}

// shouldCreateSnapshot checks if a snapshot should be created
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	delta := e.commandOffset - e.lastSnapshotOffset
	since := e.now().Sub(e.lastSnapshotAt)
	e.mu.RUnlock()

	if delta <= 0 {
		return false
	}
	return delta >= e.options.SnapshotOffsetDelta || since >= e.options.SnapshotInterval
}

func (e *Engine) createAndStoreSnapshot(ctx context.Context) {
	offset := e.GetCommandOffset()
	snapshot := &snapshotv1.Snapshot{
		Pair:          e.options.Pair,
		CommandOffset: offset,
		ExchangeState: e.exchange.Snapshot(),
	}
	if e.options.DevLedgers != nil {
		snapshot.Ledgers = e.options.DevLedgers.SnapshotLedgers()
	}

	if err := e.snapshotStore.Store(ctx, snapshot); err != nil {
		e.logger.ErrorContext(ctx, err, logger.NewField("action", "store_snapshot"))
		return
	}

	e.mu.Lock()
	e.lastSnapshotOffset = offset
	e.lastSnapshotAt = e.now()
	e.mu.Unlock()

	e.commitCovered(ctx)
}

// loadSnapshot restores the exchange and the dev ledgers from the latest snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		e.logger.Info("starting from an empty book", logger.NewField("pair", e.options.Pair))
		return nil
	}

	if e.options.DevLedgers != nil {
		if err := e.options.DevLedgers.RestoreLedgers(snapshot.Ledgers); err != nil {
			return errors.NewTracer(string(errors.SnapshotRestoreError)).Wrap(err)
		}
	}
	if err := e.exchange.Restore(snapshot.ExchangeState); err != nil {
		return err
	}

	e.mu.Lock()
	e.commandOffset = snapshot.CommandOffset
	e.lastSnapshotOffset = snapshot.CommandOffset
	e.mu.Unlock()

	e.logger.Info("exchange restored from snapshot",
		logger.NewField("pair", e.options.Pair),
		logger.NewField("offset", snapshot.CommandOffset),
		logger.NewField("orders", len(snapshot.Orders)),
	)
	return nil
}

func (e *Engine) setCommandOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commandOffset = offset
}

// GetCommandOffset returns the offset of the last applied command, -1 before the first.
func (e *Engine) GetCommandOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.commandOffset
}

// GetLastSnapshotOffset returns the command offset of the last stored snapshot.
func (e *Engine) GetLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

// Stats returns how many commands were applied and rejected since start.
func (e *Engine) Stats() (applied, rejected int64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.applied, e.rejected
}
