package pricebook

import (
	"fmt"
	"slices"
	"sort"

	orderbookv1 "github.com/999bits/wildfire/internal/domain/orderbook/v1"
	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/tidwall/btree"
)

// level is one FIFO queue of order ids resting at a price.
type level struct {
	price  uint64
	queue  []uint64
	volume uint64
}

func (l *level) info() orderbookv1.LevelInfo {
	return orderbookv1.LevelInfo{
		Price:  l.price,
		Length: len(l.queue),
		Volume: l.volume,
	}
}

// sideBook holds every level ever created on one side. Only levels with a
// non-empty queue are kept in the ordered active set.
type sideBook struct {
	side   orderbookv1.Side
	levels map[uint64]*level
	active *btree.Map[uint64, *level]
}

func newSideBook(side orderbookv1.Side) *sideBook {
	return &sideBook{
		side:   side,
		levels: make(map[uint64]*level),
		active: btree.NewMap[uint64, *level](32),
	}
}

// best returns the best active level: lowest ask or highest bid.
func (s *sideBook) best() (*level, bool) {
	var (
		lvl *level
		ok  bool
	)
	if s.side == orderbookv1.SideSell {
		_, lvl, ok = s.active.Min()
	} else {
		_, lvl, ok = s.active.Max()
	}
	return lvl, ok
}

// walk visits active levels best first until fn returns false.
func (s *sideBook) walk(fn func(price uint64, lvl *level) bool) {
	if s.side == orderbookv1.SideSell {
		s.active.Scan(fn)
		return
	}
	s.active.Reverse(fn)
}

// Book is the per price FIFO order index of both sides of one pair.
// It is not safe for concurrent use.
type Book struct {
	sides [2]*sideBook
}

// New creates an empty Book.
func New() *Book {
	return &Book{
		sides: [2]*sideBook{
			newSideBook(orderbookv1.SideSell),
			newSideBook(orderbookv1.SideBuy),
		},
	}
}

func (b *Book) of(side orderbookv1.Side) *sideBook {
	return b.sides[side]
}

// Insert appends an order at the tail of the level, creating the level if needed.
func (b *Book) Insert(side orderbookv1.Side, price, orderID, amount uint64) {
	s := b.of(side)
	lvl, ok := s.levels[price]
	if !ok {
		lvl = &level{price: price}
		s.levels[price] = lvl
	}
	if len(lvl.queue) == 0 {
		s.active.Set(price, lvl)
	}
	lvl.queue = append(lvl.queue, orderID)
	lvl.volume += amount
}

// Remove takes an order out of its level without reordering the rest of the queue.
// remaining is the amount the order still contributed to the level volume.
func (b *Book) Remove(side orderbookv1.Side, price, orderID, remaining uint64) error {
	s := b.of(side)
	lvl, ok := s.levels[price]
	if !ok {
		return orderbookv1.ErrPriceLevelNotFound
	}
	i := slices.Index(lvl.queue, orderID)
	if i < 0 {
		return orderbookv1.ErrOrderNotInLevel
	}
	if remaining > lvl.volume {
		panic(fmt.Sprintf("pricebook: %s level %d volume %d below removed amount %d", side, price, lvl.volume, remaining))
	}

	lvl.queue = slices.Delete(lvl.queue, i, i+1)
	lvl.volume -= remaining
	if len(lvl.queue) == 0 {
		s.active.Delete(price)
	}
	return nil
}

// Reduce lowers the level volume after a partial fill of one of its orders.
func (b *Book) Reduce(side orderbookv1.Side, price, amount uint64) error {
	lvl, ok := b.of(side).levels[price]
	if !ok || len(lvl.queue) == 0 {
		return orderbookv1.ErrPriceLevelNotFound
	}
	if amount > lvl.volume {
		panic(fmt.Sprintf("pricebook: %s level %d volume %d below reduced amount %d", side, price, lvl.volume, amount))
	}
	lvl.volume -= amount
	return nil
}

// PeekHead returns the earliest order at the level.
func (b *Book) PeekHead(side orderbookv1.Side, price uint64) (uint64, bool) {
	lvl, ok := b.of(side).levels[price]
	if !ok || len(lvl.queue) == 0 {
		return 0, false
	}
	return lvl.queue[0], true
}

// Find returns the earliest order at the level accepted by match.
func (b *Book) Find(side orderbookv1.Side, price uint64, match func(orderID uint64) bool) (uint64, bool) {
	lvl, ok := b.of(side).levels[price]
	if !ok {
		return 0, false
	}
	for _, id := range lvl.queue {
		if match(id) {
			return id, true
		}
	}
	return 0, false
}

// IndexOfPrice returns the position of price among the active levels, best first.
func (b *Book) IndexOfPrice(side orderbookv1.Side, price uint64) (int, error) {
	s := b.of(side)
	if _, ok := s.active.Get(price); !ok {
		return 0, orderbookv1.ErrPriceLevelNotFound
	}

	index := 0
	s.walk(func(p uint64, _ *level) bool {
		if p == price {
			return false
		}
		index++
		return true
	})
	return index, nil
}

// BestQuote returns the best price and its volume on each side, (0, 0) for an empty side.
func (b *Book) BestQuote() orderbookv1.Quote {
	var quote orderbookv1.Quote
	if lvl, ok := b.of(orderbookv1.SideSell).best(); ok {
		quote.BestSellPrice, quote.BestSellAmount = lvl.price, lvl.volume
	}
	if lvl, ok := b.of(orderbookv1.SideBuy).best(); ok {
		quote.BestBuyPrice, quote.BestBuyAmount = lvl.price, lvl.volume
	}
	return quote
}

// AllOrders returns a copy of the level queue in FIFO order.
func (b *Book) AllOrders(side orderbookv1.Side, price uint64) []uint64 {
	lvl, ok := b.of(side).levels[price]
	if !ok {
		return []uint64{}
	}
	return slices.Clone(lvl.queue)
}

// Level describes one level. Unknown levels report a zero LevelInfo; emptied
// levels keep their price with zero length and volume.
func (b *Book) Level(side orderbookv1.Side, price uint64) orderbookv1.LevelInfo {
	lvl, ok := b.of(side).levels[price]
	if !ok {
		return orderbookv1.LevelInfo{}
	}
	return lvl.info()
}

// Levels lists the active levels of a side, best first.
func (b *Book) Levels(side orderbookv1.Side) []orderbookv1.LevelInfo {
	s := b.of(side)
	levels := make([]orderbookv1.LevelInfo, 0, s.active.Len())
	s.walk(func(_ uint64, lvl *level) bool {
		levels = append(levels, lvl.info())
		return true
	})
	return levels
}

// Snapshot lists every level, emptied ones included, sell side first and by ascending price.
func (b *Book) Snapshot() []snapshotv1.Level {
	var levels []snapshotv1.Level
	for _, s := range b.sides {
		prices := make([]uint64, 0, len(s.levels))
		for price := range s.levels {
			prices = append(prices, price)
		}
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })

		for _, price := range prices {
			levels = append(levels, snapshotv1.Level{
				Side:  s.side,
				Price: price,
				Queue: append([]uint64{}, s.levels[price].queue...),
			})
		}
	}
	return levels
}

// Restore replaces the book content. remainingOf resolves the resting amount of a queued order.
func (b *Book) Restore(levels []snapshotv1.Level, remainingOf func(orderID uint64) (uint64, bool)) error {
	restored := New()
	for _, snap := range levels {
		if snap.Side != orderbookv1.SideSell && snap.Side != orderbookv1.SideBuy {
			return restoreError(fmt.Errorf("level %d has invalid side %d", snap.Price, snap.Side))
		}
		s := restored.of(snap.Side)
		if _, dup := s.levels[snap.Price]; dup {
			return restoreError(fmt.Errorf("duplicate %s level %d", snap.Side, snap.Price))
		}
		s.levels[snap.Price] = &level{price: snap.Price}

		for _, id := range snap.Queue {
			remaining, ok := remainingOf(id)
			if !ok {
				return restoreError(fmt.Errorf("%s level %d queues unknown order %d", snap.Side, snap.Price, id))
			}
			restored.Insert(snap.Side, snap.Price, id, remaining)
		}
	}

	b.sides = restored.sides
	return nil
}

func restoreError(err error) error {
	return errors.NewTracer(string(errors.SnapshotRestoreError)).Wrap(err)
}
