package view

import (
	"sync"

	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
	orderbookservice "limitbook/internal/orderbook/service"
)

// BestPrices holds the current best bid/ask and last trade info for an
// instrument. The last price shown is the resting ask leg's price.
type BestPrices struct {
	BidPrice  core.Price
	BidSize   core.Quantity
	BidOK     bool
	AskPrice  core.Price
	AskSize   core.Quantity
	AskOK     bool
	LastPrice core.Price
	LastSize  core.Quantity
	HasLast   bool
}

// MarketSnapshot is a point-in-time snapshot of all instruments.
type MarketSnapshot struct {
	BySymbol map[market.Symbol]BestPrices
}

// MarketView maintains the aggregate market state across all instruments.
type MarketView struct {
	mu        sync.RWMutex
	lastTrade map[market.Symbol]core.TradeEvent
}

// NewMarketView creates a new MarketView.
func NewMarketView() *MarketView {
	return &MarketView{
		lastTrade: make(map[market.Symbol]core.TradeEvent),
	}
}

// Apply updates the view with an event from a specific instrument's book.
func (v *MarketView) Apply(sym market.Symbol, ev core.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if trade, ok := ev.(core.TradeEvent); ok {
		v.lastTrade[sym] = trade
	}
}

// SnapshotWithBooks returns a snapshot including best bid/ask from the books.
func (v *MarketView) SnapshotWithBooks(books map[market.Symbol]*orderbookservice.Service) MarketSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := MarketSnapshot{
		BySymbol: make(map[market.Symbol]BestPrices, len(books)),
	}

	for sym, book := range books {
		var bp BestPrices

		bids := book.GetLevels(core.SideBuy)
		if len(bids) > 0 {
			bp.BidPrice = bids[0].Price
			bp.BidSize = bids[0].Quantity
			bp.BidOK = true
		}

		asks := book.GetLevels(core.SideSell)
		if len(asks) > 0 {
			bp.AskPrice = asks[0].Price
			bp.AskSize = asks[0].Quantity
			bp.AskOK = true
		}

		if trade, ok := v.lastTrade[sym]; ok {
			bp.LastPrice = trade.Ask.Price
			bp.LastSize = trade.Ask.Quantity
			bp.HasLast = true
		}

		snap.BySymbol[sym] = bp
	}

	return snap
}
