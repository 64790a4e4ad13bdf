package orderbookv1

// LevelInfo describes one price level of one side.
type LevelInfo struct {
	Price  uint64 `json:"price"`
	Length int    `json:"length"`
	Volume uint64 `json:"volume"`
}

// IsEmpty reports whether no active order rests at the level.
func (l LevelInfo) IsEmpty() bool {
	return l.Length == 0
}

// Quote is the top of the book. A side with no active level reports (0, 0).
type Quote struct {
	BestSellPrice  uint64 `json:"bestSellPrice"`
	BestSellAmount uint64 `json:"bestSellAmount"`
	BestBuyPrice   uint64 `json:"bestBuyPrice"`
	BestBuyAmount  uint64 `json:"bestBuyAmount"`
}

// Fill is the outcome of one fulfilment call.
type Fill struct {
	Order     Order  `json:"order"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	Amount    uint64 `json:"amount"`
	Payment   uint64 `json:"payment"`
	Remaining uint64 `json:"remaining"`
}

// Complete reports whether the fill consumed the resting order.
func (f Fill) Complete() bool {
	return f.Remaining == 0
}
