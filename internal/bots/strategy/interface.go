package strategy

import (
	"context"

	"limitbook/internal/bots"
	"limitbook/internal/market"
	marketview "limitbook/internal/market/view"
	"limitbook/internal/orderbook/core"
	orderbookview "limitbook/internal/orderbook/view"
)

// MarketReader provides read-only access to market data.
type MarketReader interface {
	Snapshot() marketview.MarketSnapshot
	GetLevels(sym market.Symbol, side core.Side) ([]core.DepthLevel, error)
	GetOrders(sym market.Symbol, side core.Side) ([]orderbookview.RestingOrder, error)
	GetTradesLast(sym market.Symbol, n int) ([]core.TradeEvent, error)
	GetInstruments() []market.Instrument
}

// OrderSender provides the ability to send orders to the market.
type OrderSender interface {
	NextID(sym market.Symbol) (core.OrderID, error)
	AddOrder(ctx context.Context, sym market.Symbol, o core.Order) ([]core.Trade, error)
	CancelOrder(ctx context.Context, sym market.Symbol, id core.OrderID) error
	ModifyOrder(ctx context.Context, sym market.Symbol, m core.Modify) ([]core.Trade, error)
}

// Strategy is the interface for bot strategies.
type Strategy interface {
	// Step is called on each tick. Returns order intents and any events to publish.
	Step(ctx context.Context, now int64, mr MarketReader) ([]bots.OrderIntent, []bots.BotEvent)
}
