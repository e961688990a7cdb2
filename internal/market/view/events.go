package view

import (
	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
)

// MarketEvent wraps a core event with its associated instrument.
type MarketEvent struct {
	Symbol market.Symbol
	Event  core.Event
}
