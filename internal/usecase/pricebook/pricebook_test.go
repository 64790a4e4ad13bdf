package pricebook

import (
	"testing"

	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sell = orderbookv1.SideSell
	buy  = orderbookv1.SideBuy
)

func TestNew(t *testing.T) {
	book := New()

	assert.Equal(t, orderbookv1.Quote{}, book.BestQuote())
	assert.Empty(t, book.Levels(sell))
	assert.Empty(t, book.Levels(buy))
	assert.Equal(t, orderbookv1.LevelInfo{}, book.Level(sell, 10))
	assert.Equal(t, []uint64{}, book.AllOrders(buy, 10))
}

func TestBook_Insert(t *testing.T) {
	book := New()

	book.Insert(sell, 5, 1, 10)
	book.Insert(sell, 5, 2, 4)
	book.Insert(buy, 3, 3, 7)

	assert.Equal(t, orderbookv1.LevelInfo{Price: 5, Length: 2, Volume: 14}, book.Level(sell, 5))
	assert.Equal(t, orderbookv1.LevelInfo{Price: 3, Length: 1, Volume: 7}, book.Level(buy, 3))
	assert.Equal(t, []uint64{1, 2}, book.AllOrders(sell, 5))

	head, ok := book.PeekHead(sell, 5)
	require.True(t, ok)
	assert.Equal(t, uint64(1), head)
}

func TestBook_Remove(t *testing.T) {
	testCases := []struct {
		name        string
		remove      []uint64
		wantQueue   []uint64
		wantLength  int
		wantVolume  uint64
		wantInQuote bool
	}{
		{
			name:        "head",
			remove:      []uint64{1},
			wantQueue:   []uint64{2, 3},
			wantLength:  2,
			wantVolume:  5,
			wantInQuote: true,
		},
		{
			name:        "middle keeps order",
			remove:      []uint64{2},
			wantQueue:   []uint64{1, 3},
			wantLength:  2,
			wantVolume:  4,
			wantInQuote: true,
		},
		{
			name:        "tail",
			remove:      []uint64{3},
			wantQueue:   []uint64{1, 2},
			wantLength:  2,
			wantVolume:  3,
			wantInQuote: true,
		},
		{
			name:        "everything retains the level",
			remove:      []uint64{1, 2, 3},
			wantQueue:   []uint64{},
			wantLength:  0,
			wantVolume:  0,
			wantInQuote: false,
		},
	}

	amounts := map[uint64]uint64{1: 1, 2: 2, 3: 3}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			book := New()
			for id := uint64(1); id <= 3; id++ {
				book.Insert(sell, 8, id, amounts[id])
			}

			for _, id := range tc.remove {
				require.NoError(t, book.Remove(sell, 8, id, amounts[id]))
			}

			assert.Equal(t, tc.wantQueue, book.AllOrders(sell, 8))
			info := book.Level(sell, 8)
			assert.Equal(t, uint64(8), info.Price)
			assert.Equal(t, tc.wantLength, info.Length)
			assert.Equal(t, tc.wantVolume, info.Volume)
			assert.Equal(t, tc.wantInQuote, book.BestQuote().BestSellPrice == 8)
		})
	}
}

func TestBook_RemoveErrors(t *testing.T) {
	book := New()
	book.Insert(buy, 4, 1, 2)

	err := book.Remove(buy, 5, 1, 2)
	assert.ErrorIs(t, err, orderbookv1.ErrPriceLevelNotFound)
	assert.ErrorIs(t, err, orderbookv1.ErrNotFound)

	err = book.Remove(buy, 4, 9, 2)
	assert.ErrorIs(t, err, orderbookv1.ErrOrderNotInLevel)

	err = book.Remove(sell, 4, 1, 2)
	assert.ErrorIs(t, err, orderbookv1.ErrPriceLevelNotFound)
}

func TestBook_ReinsertAfterEmpty(t *testing.T) {
	book := New()
	book.Insert(sell, 6, 1, 3)
	require.NoError(t, book.Remove(sell, 6, 1, 3))
	assert.Empty(t, book.Levels(sell))

	book.Insert(sell, 6, 2, 9)
	assert.Equal(t, []orderbookv1.LevelInfo{{Price: 6, Length: 1, Volume: 9}}, book.Levels(sell))
	assert.Equal(t, uint64(6), book.BestQuote().BestSellPrice)
}

func TestBook_Reduce(t *testing.T) {
	book := New()
	book.Insert(sell, 2, 1, 10)

	require.NoError(t, book.Reduce(sell, 2, 4))
	assert.Equal(t, uint64(6), book.Level(sell, 2).Volume)
	assert.Equal(t, 1, book.Level(sell, 2).Length)

	assert.ErrorIs(t, book.Reduce(sell, 3, 1), orderbookv1.ErrPriceLevelNotFound)
	assert.Panics(t, func() { _ = book.Reduce(sell, 2, 7) })
}

func TestBook_BestQuote(t *testing.T) {
	book := New()
	book.Insert(sell, 9, 1, 1)
	book.Insert(sell, 7, 2, 2)
	book.Insert(sell, 7, 3, 3)
	book.Insert(buy, 4, 4, 4)
	book.Insert(buy, 6, 5, 5)

	assert.Equal(t, orderbookv1.Quote{
		BestSellPrice:  7,
		BestSellAmount: 5,
		BestBuyPrice:   6,
		BestBuyAmount:  5,
	}, book.BestQuote())

	require.NoError(t, book.Remove(buy, 6, 5, 5))
	quote := book.BestQuote()
	assert.Equal(t, uint64(4), quote.BestBuyPrice)
	assert.Equal(t, uint64(4), quote.BestBuyAmount)

	require.NoError(t, book.Remove(buy, 4, 4, 4))
	quote = book.BestQuote()
	assert.Equal(t, uint64(0), quote.BestBuyPrice)
	assert.Equal(t, uint64(0), quote.BestBuyAmount)
	assert.Equal(t, uint64(7), quote.BestSellPrice)
}

func TestBook_IndexOfPrice(t *testing.T) {
	book := New()
	for i, price := range []uint64{30, 10, 20} {
		book.Insert(sell, price, uint64(i+1), 1)
		book.Insert(buy, price, uint64(i+10), 1)
	}

	testCases := []struct {
		name      string
		side      orderbookv1.Side
		price     uint64
		wantIndex int
		wantErr   error
	}{
		{name: "best ask", side: sell, price: 10, wantIndex: 0},
		{name: "worst ask", side: sell, price: 30, wantIndex: 2},
		{name: "best bid", side: buy, price: 30, wantIndex: 0},
		{name: "middle bid", side: buy, price: 20, wantIndex: 1},
		{name: "unknown level", side: sell, price: 15, wantErr: orderbookv1.ErrPriceLevelNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			index, err := book.IndexOfPrice(tc.side, tc.price)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantIndex, index)
		})
	}

	require.NoError(t, book.Remove(sell, 10, 2, 1))
	_, err := book.IndexOfPrice(sell, 10)
	assert.ErrorIs(t, err, orderbookv1.ErrPriceLevelNotFound)
	index, err := book.IndexOfPrice(sell, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

func TestBook_Levels(t *testing.T) {
	book := New()
	book.Insert(buy, 1, 1, 5)
	book.Insert(buy, 3, 2, 6)
	book.Insert(buy, 2, 3, 7)

	assert.Equal(t, []orderbookv1.LevelInfo{
		{Price: 3, Length: 1, Volume: 6},
		{Price: 2, Length: 1, Volume: 7},
		{Price: 1, Length: 1, Volume: 5},
	}, book.Levels(buy))
}

func TestBook_Find(t *testing.T) {
	book := New()
	book.Insert(sell, 5, 1, 1)
	book.Insert(sell, 5, 2, 1)
	book.Insert(sell, 5, 3, 1)

	id, ok := book.Find(sell, 5, func(orderID uint64) bool { return orderID >= 2 })
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)

	_, ok = book.Find(sell, 5, func(uint64) bool { return false })
	assert.False(t, ok)

	_, ok = book.Find(buy, 5, func(uint64) bool { return true })
	assert.False(t, ok)
}

func TestBook_SnapshotRestore(t *testing.T) {
	book := New()
	book.Insert(sell, 5, 1, 10)
	book.Insert(sell, 5, 2, 3)
	book.Insert(buy, 2, 3, 4)
	book.Insert(buy, 1, 4, 1)
	require.NoError(t, book.Remove(buy, 1, 4, 1))

	levels := book.Snapshot()
	assert.Equal(t, []snapshotv1.Level{
		{Side: sell, Price: 5, Queue: []uint64{1, 2}},
		{Side: buy, Price: 1, Queue: []uint64{}},
		{Side: buy, Price: 2, Queue: []uint64{3}},
	}, levels)

	remaining := map[uint64]uint64{1: 10, 2: 3, 3: 4}
	restored := New()
	require.NoError(t, restored.Restore(levels, func(id uint64) (uint64, bool) {
		amount, ok := remaining[id]
		return amount, ok
	}))

	assert.Equal(t, book.BestQuote(), restored.BestQuote())
	assert.Equal(t, book.Levels(sell), restored.Levels(sell))
	assert.Equal(t, book.Levels(buy), restored.Levels(buy))
	assert.Equal(t, orderbookv1.LevelInfo{Price: 1}, restored.Level(buy, 1))
}

func TestBook_RestoreErrors(t *testing.T) {
	known := func(id uint64) (uint64, bool) { return 1, id == 1 }

	testCases := []struct {
		name   string
		levels []snapshotv1.Level
	}{
		{
			name:   "unknown order",
			levels: []snapshotv1.Level{{Side: sell, Price: 1, Queue: []uint64{2}}},
		},
		{
			name: "duplicate level",
			levels: []snapshotv1.Level{
				{Side: sell, Price: 1, Queue: []uint64{1}},
				{Side: sell, Price: 1},
			},
		},
		{
			name:   "invalid side",
			levels: []snapshotv1.Level{{Side: orderbookv1.Side(7), Price: 1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			book := New()
			book.Insert(sell, 9, 1, 1)

			err := book.Restore(tc.levels, known)
			require.Error(t, err)
			tracer, ok := err.(*errors.ErrorTracer)
			require.True(t, ok)
			assert.Equal(t, string(errors.SnapshotRestoreError), tracer.Message)

			assert.Equal(t, uint64(9), book.BestQuote().BestSellPrice)
		})
	}
}
