package core

import (
	"fmt"
	"strconv"
)

// Side represents the order side: buy or sell.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents how an order behaves when it cannot fully execute.
type OrderType uint8

const (
	// GoodTillCancel orders rest on the book until filled or canceled.
	GoodTillCancel OrderType = iota
	// FillAndKill orders execute immediately against resting liquidity;
	// any unfilled remainder is discarded rather than rested.
	FillAndKill
)

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "GTC"
	case FillAndKill:
		return "FAK"
	default:
		return "UNKNOWN"
	}
}

// Price represents price in integer ticks.
type Price int64

func (p Price) String() string { return strconv.FormatInt(int64(p), 10) }

// Quantity represents order quantity.
type Quantity int64

func (q Quantity) String() string { return strconv.FormatInt(int64(q), 10) }

// OrderID uniquely identifies an order. IDs are assigned by the caller and
// must be unique among all orders currently known to the book.
type OrderID uint64

// Order is the unit the book operates on. Identity, side, price and original
// quantity are fixed at submission; only Remaining changes as fills occur.
type Order struct {
	ID        OrderID
	Side      Side
	Type      OrderType
	Price     Price
	Quantity  Quantity // original quantity
	Remaining Quantity
}

// IsFilled reports whether the order has no remaining quantity. A filled
// order is terminal and must not appear in any level or index.
func (o *Order) IsFilled() bool { return o.Remaining == 0 }

// FilledQuantity returns how much of the order has executed so far.
func (o *Order) FilledQuantity() Quantity { return o.Quantity - o.Remaining }

// Fill decreases the remaining quantity by q. Filling for more than the
// remaining quantity signals a matching-loop bug, never caller error: the
// book always computes fill sizes as the minimum of both sides' remainders.
func (o *Order) Fill(q Quantity) error {
	if q > o.Remaining {
		return fmt.Errorf("order %d: fill %d exceeds remaining %d: %w", o.ID, q, o.Remaining, ErrOverfill)
	}
	o.Remaining -= q
	return nil
}

// Modify describes a requested change to a resting order. The order type is
// not modifiable and is recovered from the existing order.
type Modify struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

// TradeLeg is one side's participation in a trade.
type TradeLeg struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade is the immutable record of a single execution between one buy and
// one sell order. Both legs carry the same quantity; each leg executes at
// that resting order's own price.
type Trade struct {
	Bid TradeLeg
	Ask TradeLeg
}

// DepthLevel aggregates one price level into (price, total remaining).
type DepthLevel struct {
	Price    Price
	Quantity Quantity
}

// Depth is a point-in-time projection of the book, each side ordered by
// matching priority (bids descending, asks ascending).
type Depth struct {
	Bids []DepthLevel
	Asks []DepthLevel
}
