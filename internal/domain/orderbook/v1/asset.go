package orderbookv1

import (
	"strconv"
	"strings"
)

// AssetID addresses one escrowed asset: a lot of the trade asset or the payment asset.
type AssetID string

const (
	// PaymentAsset is the fungible asset buy orders lock.
	PaymentAsset AssetID = "payment"

	tradePrefix = "trade/"
)

// TradeLot returns the asset id of one lot of the trade asset.
func TradeLot(lotID uint64) AssetID {
	return AssetID(tradePrefix + strconv.FormatUint(lotID, 10))
}

// LotID returns the lot of a trade asset id.
func (a AssetID) LotID() (uint64, bool) {
	raw, ok := strings.CutPrefix(string(a), tradePrefix)
	if !ok {
		return 0, false
	}
	lot, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return lot, true
}

// Side returns the book side whose orders are collateralised by this asset.
func (a AssetID) Side() (Side, bool) {
	if a == PaymentAsset {
		return SideBuy, true
	}
	if _, ok := a.LotID(); ok {
		return SideSell, true
	}
	return 0, false
}
