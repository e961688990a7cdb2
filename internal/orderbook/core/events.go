package core

// Event is the interface for all book events.
type Event interface {
	isEvent()
}

// RemoveReason indicates why an order was removed from the book.
type RemoveReason uint8

const (
	RemoveReasonFilled RemoveReason = iota
	RemoveReasonCanceled
)

func (r RemoveReason) String() string {
	switch r {
	case RemoveReasonFilled:
		return "FILLED"
	case RemoveReasonCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// TradeEvent is emitted for every execution produced by the matching loop.
type TradeEvent struct {
	Bid TradeLeg
	Ask TradeLeg
}

func (TradeEvent) isEvent() {}

// OrderRestedEvent is emitted when an order is placed into a price level.
type OrderRestedEvent struct {
	OrderID  OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

func (OrderRestedEvent) isEvent() {}

// OrderReducedEvent is emitted when a resting order is partially filled.
type OrderReducedEvent struct {
	OrderID   OrderID
	Side      Side
	Price     Price
	Delta     Quantity // negative number (e.g. -5)
	Remaining Quantity
}

func (OrderReducedEvent) isEvent() {}

// OrderRemovedEvent is emitted when an order leaves the book entirely.
type OrderRemovedEvent struct {
	OrderID   OrderID
	Side      Side
	Price     Price
	Reason    RemoveReason
	Remaining Quantity // quantity removed at time of removal (0 for filled; >0 for cancel)
}

func (OrderRemovedEvent) isEvent() {}
