package bots

import (
	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
)

// BotID uniquely identifies a bot.
type BotID int64

// IntentKind indicates what a bot wants done with an order.
type IntentKind int

const (
	IntentPlace IntentKind = iota
	IntentCancel
	IntentModify
)

// OrderIntent represents a bot's intention to act on an order. For place
// intents the OrderID is assigned by the runner at execution time; cancel and
// modify intents must carry the id of a resting order.
type OrderIntent struct {
	Kind     IntentKind
	Symbol   market.Symbol
	OrderID  core.OrderID
	Type     core.OrderType
	Side     core.Side
	Price    core.Price
	Quantity core.Quantity
}

// BotEventType indicates the type of bot event.
type BotEventType int

const (
	BotEventPlacedOrder BotEventType = iota
	BotEventCanceled
	BotEventModified
	BotEventError
)

// BotEvent represents an action or event from a bot.
type BotEvent struct {
	BotID   BotID
	Time    int64
	Type    BotEventType
	OrderID core.OrderID
	Intent  *OrderIntent // optional, for order actions
	Message string       // optional, for errors or info
}
