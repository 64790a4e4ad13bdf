package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commandv1 "github.com/999bits/wildfire/internal/domain/command/v1"
	commandv1_mock "github.com/999bits/wildfire/internal/domain/command/v1/mock"
	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	eventv1_mock "github.com/999bits/wildfire/internal/domain/event/v1/mock"
	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	snapshotv1_mock "github.com/999bits/wildfire/internal/domain/snapshot/v1/mock"
	"github.com/999bits/wildfire/internal/infrastructure/memory"
	"github.com/999bits/wildfire/internal/usecase/exchange"
	pkgerrors "github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operator = "exchange"

type testFixture struct {
	ctx           context.Context
	mockReader    *commandv1_mock.MockReader
	mockStore     *snapshotv1_mock.MockStore
	mockPublisher *eventv1_mock.MockPublisher
	ledgers       *memory.Ledgers
	exchange      *exchange.Exchange
	options       *Options
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	ledgers := memory.NewLedgers()
	options := DefaultEngineOptions()
	options.SnapshotInterval = time.Hour
	options.SnapshotOffsetDelta = 100
	options.DevLedgers = ledgers

	return &testFixture{
		ctx:           context.Background(),
		mockReader:    commandv1_mock.NewMockReader(ctrl),
		mockStore:     snapshotv1_mock.NewMockStore(ctrl),
		mockPublisher: eventv1_mock.NewMockPublisher(ctrl),
		ledgers:       ledgers,
		exchange:      exchange.New(operator, ledgers.Trade, ledgers.Payment, logger.NewNopLogger()),
		options:       options,
	}
}

func (f *testFixture) newEngine(t *testing.T) *Engine {
	t.Helper()
	f.mockStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil)
	e, err := NewEngine(f.ctx, f.exchange, f.mockReader, f.mockStore, f.mockPublisher, logger.NewNopLogger(), f.options)
	require.NoError(t, err)
	return e
}

// feed makes the reader return commands in order, one per step.
func (f *testFixture) feed(commands ...commandv1.Command) {
	calls := make([]*gomock.Call, 0, len(commands))
	for i := range commands {
		cmd := commands[i]
		cmd.Offset = int64(i)
		calls = append(calls, f.mockReader.EXPECT().ReadMessage(gomock.Any()).
			Return(kafka.Message{Offset: int64(i)}, &cmd, nil))
	}
	gomock.InOrder(calls...)
}

func sellerCommands() []commandv1.Command {
	return []commandv1.Command{
		{Type: commandv1.TypeMint, Caller: "alice", LotID: 7, Amount: 10},
		{Type: commandv1.TypeAuthorizeOperator, Caller: "alice", Operator: operator, Approved: true},
		{Type: commandv1.TypeCreateSell, Caller: "alice", Price: 3, Amount: 4, LotID: 7},
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		f := setupTestFixture(t)
		e := f.newEngine(t)
		assert.Equal(t, int64(-1), e.GetCommandOffset())
		assert.Equal(t, int64(-1), e.GetLastSnapshotOffset())
	})

	t.Run("load failure", func(t *testing.T) {
		f := setupTestFixture(t)
		down := errors.New("redis down")
		f.mockStore.EXPECT().LoadStore(gomock.Any()).Return(nil, down)

		_, err := NewEngine(f.ctx, f.exchange, f.mockReader, f.mockStore, f.mockPublisher, logger.NewNopLogger(), f.options)
		assert.ErrorIs(t, err, down)
	})

	t.Run("restores exchange and ledgers", func(t *testing.T) {
		source := setupTestFixture(t)
		require.NoError(t, source.ledgers.Trade.Mint(source.ctx, "alice", 7, 10))
		require.NoError(t, source.ledgers.Trade.AuthorizeOperator(source.ctx, "alice", operator, true))
		_, err := source.exchange.CreateSellOrder(source.ctx, "alice", 3, 4, 7)
		require.NoError(t, err)

		snapshot := &snapshotv1.Snapshot{
			Pair:          "VT/WBNB",
			CommandOffset: 41,
			ExchangeState: source.exchange.Snapshot(),
			Ledgers:       source.ledgers.SnapshotLedgers(),
		}

		f := setupTestFixture(t)
		f.mockStore.EXPECT().LoadStore(gomock.Any()).Return(snapshot, nil)
		e, err := NewEngine(f.ctx, f.exchange, f.mockReader, f.mockStore, f.mockPublisher, logger.NewNopLogger(), f.options)
		require.NoError(t, err)

		assert.Equal(t, int64(41), e.GetCommandOffset())
		assert.Equal(t, int64(41), e.GetLastSnapshotOffset())
		assert.Equal(t, source.exchange.Snapshot(), f.exchange.Snapshot())
		assert.Equal(t, source.ledgers.SnapshotLedgers(), f.ledgers.SnapshotLedgers())

		f.mockReader.EXPECT().SetOffset(int64(42)).Return(nil)
		f.mockReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
			func(ctx context.Context) (kafka.Message, *commandv1.Command, error) {
				<-ctx.Done()
				return kafka.Message{}, nil, ctx.Err()
			}).AnyTimes()
		f.mockReader.EXPECT().Close().Return(nil)
		require.NoError(t, e.Start(f.ctx))
		require.NoError(t, e.Stop(f.ctx))
	})

	t.Run("inconsistent snapshot", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mockStore.EXPECT().LoadStore(gomock.Any()).Return(&snapshotv1.Snapshot{
			ExchangeState: snapshotv1.ExchangeState{
				NextOrderID: 1,
				Orders:      []orderbookv1.Order{{ID: 5, RemainingAmount: 1, OriginalAmount: 1}},
			},
		}, nil)

		_, err := NewEngine(f.ctx, f.exchange, f.mockReader, f.mockStore, f.mockPublisher, logger.NewNopLogger(), f.options)
		assert.Error(t, err)
	})
}

func TestEngine_Step(t *testing.T) {
	t.Run("applies commands and publishes events", func(t *testing.T) {
		f := setupTestFixture(t)
		e := f.newEngine(t)

		f.feed(sellerCommands()...)
		f.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, events ...eventv1.Event) error {
				require.Len(t, events, 1)
				assert.Equal(t, eventv1.TypeOrderCreated, events[0].Type)
				assert.Equal(t, "alice", events[0].Creator)
				return nil
			})

		for range 3 {
			e.step(f.ctx)
		}

		assert.Equal(t, int64(2), e.GetCommandOffset())
		applied, rejected := e.Stats()
		assert.Equal(t, int64(3), applied)
		assert.Equal(t, int64(0), rejected)

		order, err := f.exchange.Order(1)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), order.RemainingAmount)
	})

	t.Run("rejected command advances the offset", func(t *testing.T) {
		f := setupTestFixture(t)
		e := f.newEngine(t)

		f.feed(commandv1.Command{Type: commandv1.TypeCreateSell, Caller: "alice", Price: 3, Amount: 4, LotID: 7})

		e.step(f.ctx)

		assert.Equal(t, int64(0), e.GetCommandOffset())
		_, rejected := e.Stats()
		assert.Equal(t, int64(1), rejected)
	})

	t.Run("ledger command without dev ledger", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.DevLedgers = nil
		e := f.newEngine(t)

		err := e.apply(f.ctx, &commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 5})
		assert.ErrorIs(t, err, orderbookv1.ErrInvalidArgument)
		balance, _ := f.ledgers.Payment.BalanceOf(f.ctx, "bob")
		assert.Zero(t, balance)
	})

	t.Run("undecodable message is skipped", func(t *testing.T) {
		f := setupTestFixture(t)
		e := f.newEngine(t)

		poison := kafka.Message{Offset: 9}
		f.mockReader.EXPECT().ReadMessage(gomock.Any()).Return(poison, nil,
			pkgerrors.NewErrorDetails("malformed", string(pkgerrors.KafkaDecodeError), "value"))

		e.step(f.ctx)
		assert.Equal(t, int64(9), e.GetCommandOffset())
		assert.Equal(t, &poison, e.uncommitted)
	})

	t.Run("read failure keeps the offset", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.ReadBackoff = time.Millisecond
		e := f.newEngine(t)

		f.mockReader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{}, nil, errors.New("broker down"))

		e.step(f.ctx)
		assert.Equal(t, int64(-1), e.GetCommandOffset())
	})

	t.Run("dev ledger commands", func(t *testing.T) {
		f := setupTestFixture(t)
		e := f.newEngine(t)

		commands := []commandv1.Command{
			{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 50},
			{Type: commandv1.TypeApprove, Caller: "bob", Spender: operator, Amount: 30},
			{Type: commandv1.TypeMint, Caller: "alice", LotID: 2, Amount: 5},
			{Type: commandv1.TypeAuthorizeOperator, Caller: "alice", Operator: operator, Approved: true},
		}
		for i := range commands {
			require.NoError(t, e.apply(f.ctx, &commands[i]))
		}

		balance, _ := f.ledgers.Payment.BalanceOf(f.ctx, "bob")
		assert.Equal(t, uint64(50), balance)
		allowance, _ := f.ledgers.Payment.Allowance(f.ctx, "bob", operator)
		assert.Equal(t, uint64(30), allowance)
		lots, _ := f.ledgers.Trade.BalanceOf(f.ctx, "alice", 2)
		assert.Equal(t, uint64(5), lots)
		authorized, _ := f.ledgers.Trade.IsAuthorized(f.ctx, "alice", operator)
		assert.True(t, authorized)
	})
}

func TestEngine_Snapshots(t *testing.T) {
	t.Run("offset delta", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.SnapshotOffsetDelta = 3
		e := f.newEngine(t)

		f.feed(sellerCommands()...)
		f.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		gomock.InOrder(
			f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, s *snapshotv1.Snapshot) error {
					assert.Equal(t, "VT/WBNB", s.Pair)
					assert.Equal(t, int64(2), s.CommandOffset)
					assert.Len(t, s.Orders, 1)
					require.NotNil(t, s.Ledgers)
					assert.NotEmpty(t, s.Ledgers.Lots)
					return nil
				}),
			f.mockReader.EXPECT().CommitMessages(gomock.Any(), kafka.Message{Offset: 2}).Return(nil),
		)

		for range 3 {
			e.step(f.ctx)
		}
		assert.Equal(t, int64(2), e.GetLastSnapshotOffset())
	})

	t.Run("interval after idle read", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.SnapshotInterval = 10 * time.Millisecond
		e := f.newEngine(t)

		clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		e.now = func() time.Time { return clock }
		e.lastSnapshotAt = clock

		f.feed(commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 1})
		e.step(f.ctx)
		assert.Equal(t, int64(-1), e.GetLastSnapshotOffset())

		clock = clock.Add(time.Second)
		f.mockReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
			func(ctx context.Context) (kafka.Message, *commandv1.Command, error) {
				<-ctx.Done()
				return kafka.Message{}, nil, ctx.Err()
			})
		gomock.InOrder(
			f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil),
			f.mockReader.EXPECT().CommitMessages(gomock.Any(), kafka.Message{Offset: 0}).Return(nil),
		)

		e.step(f.ctx)
		assert.Equal(t, int64(0), e.GetLastSnapshotOffset())
	})

	t.Run("store failure is retried on the next step", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.SnapshotOffsetDelta = 1
		e := f.newEngine(t)

		f.feed(
			commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 1},
			commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 1},
		)
		gomock.InOrder(
			f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).Return(errors.New("redis down")),
			f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil),
			f.mockReader.EXPECT().CommitMessages(gomock.Any(), kafka.Message{Offset: 1}).Return(nil),
		)

		e.step(f.ctx)
		assert.Equal(t, int64(-1), e.GetLastSnapshotOffset())
		e.step(f.ctx)
		assert.Equal(t, int64(1), e.GetLastSnapshotOffset())
	})

	t.Run("group offset never passes the stored snapshot", func(t *testing.T) {
		f := setupTestFixture(t)
		f.options.SnapshotOffsetDelta = 3
		e := f.newEngine(t)

		commands := append(sellerCommands(),
			commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 1},
			commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 1},
		)
		f.feed(commands...)
		f.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		var stored *snapshotv1.Snapshot
		var committed []int64
		f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, s *snapshotv1.Snapshot) error {
				stored = s
				return nil
			})
		f.mockReader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msgs ...kafka.Message) error {
				for _, msg := range msgs {
					committed = append(committed, msg.Offset)
				}
				return nil
			}).AnyTimes()

		// The process dies after the last step, before another snapshot.
		for range commands {
			e.step(f.ctx)
		}
		assert.Equal(t, int64(4), e.GetCommandOffset())
		require.NotNil(t, stored)
		assert.Equal(t, int64(2), stored.CommandOffset)
		assert.Equal(t, []int64{2}, committed)

		restarted := setupTestFixture(t)
		restarted.mockStore.EXPECT().LoadStore(gomock.Any()).Return(stored, nil)
		r, err := NewEngine(restarted.ctx, restarted.exchange, restarted.mockReader, restarted.mockStore,
			restarted.mockPublisher, logger.NewNopLogger(), restarted.options)
		require.NoError(t, err)
		assert.Equal(t, committed[len(committed)-1], r.GetCommandOffset())

		balance, _ := restarted.ledgers.Payment.BalanceOf(restarted.ctx, "bob")
		assert.Zero(t, balance, "commands after the snapshot are replayed, not restored")
	})
}

func TestEngine_StartStop(t *testing.T) {
	f := setupTestFixture(t)
	e := f.newEngine(t)

	applied := make(chan struct{})
	var once sync.Once
	cmd := &commandv1.Command{Type: commandv1.TypeDeposit, Caller: "bob", Amount: 5}
	gomock.InOrder(
		f.mockReader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{Offset: 0}, cmd, nil),
		f.mockReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
			func(ctx context.Context) (kafka.Message, *commandv1.Command, error) {
				once.Do(func() { close(applied) })
				<-ctx.Done()
				return kafka.Message{}, nil, ctx.Err()
			}).AnyTimes(),
	)
	gomock.InOrder(
		f.mockStore.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, s *snapshotv1.Snapshot) error {
				assert.Equal(t, int64(0), s.CommandOffset)
				return nil
			}),
		f.mockReader.EXPECT().CommitMessages(gomock.Any(), kafka.Message{Offset: 0}).Return(nil),
		f.mockReader.EXPECT().Close().Return(nil),
	)

	require.NoError(t, e.Start(f.ctx))
	select {
	case <-applied:
	case <-time.After(5 * time.Second):
		t.Fatal("command was not applied")
	}

	stopCtx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))
	assert.Equal(t, int64(0), e.GetLastSnapshotOffset())
}
