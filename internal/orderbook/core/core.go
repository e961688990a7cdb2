package core

import "errors"

// ErrOverfill signals an attempt to fill an order for more than its
// remaining quantity. No legitimate input sequence can trigger it; it marks
// an internal matching bug and must abort the operation.
var ErrOverfill = errors.New("fill exceeds remaining quantity")

// Book is the matching engine for a single instrument. It is deterministic
// and single-threaded: no goroutines, mutexes, channels, or time calls.
// Serializing calls is the caller's responsibility; one instrument means one
// Book, and many instruments mean many independent Books.
type Book struct {
	bids *bookSide
	asks *bookSide

	orders map[OrderID]*node // resting only
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{
		bids:   newBookSide(true),
		asks:   newBookSide(false),
		orders: map[OrderID]*node{},
	}
}

func (b *Book) sideFor(s Side) *bookSide {
	if s == SideBuy {
		return b.bids
	}
	return b.asks
}

// canMatch reports whether an order at the given side and price would cross
// the opposite side's best level.
func (b *Book) canMatch(side Side, price Price) bool {
	best := b.sideFor(side.Opposite()).best()
	if best == nil {
		return false
	}
	if side == SideBuy {
		return price >= best.price
	}
	return price <= best.price
}

// AddOrder submits an order and returns the trades it produced. Duplicate
// ids and FillAndKill orders that cannot cross are silently rejected with no
// state change. Otherwise the order joins the back of its price level and
// the matching loop runs until the book is no longer crossed.
func (b *Book) AddOrder(o Order) ([]Trade, []Event, error) {
	if _, exists := b.orders[o.ID]; exists {
		return nil, nil, nil
	}
	if o.Type == FillAndKill && !b.canMatch(o.Side, o.Price) {
		return nil, nil, nil
	}

	ord := &Order{
		ID:        o.ID,
		Side:      o.Side,
		Type:      o.Type,
		Price:     o.Price,
		Quantity:  o.Quantity,
		Remaining: o.Quantity,
	}
	n := &node{order: ord}
	b.sideFor(ord.Side).getOrCreate(ord.Price).append(n)
	b.orders[ord.ID] = n

	events := []Event{OrderRestedEvent{
		OrderID:  ord.ID,
		Side:     ord.Side,
		Price:    ord.Price,
		Quantity: ord.Remaining,
	}}
	trades, matchEvents, err := b.match()
	return trades, append(events, matchEvents...), err
}

// CancelOrder removes a resting order by id. Unknown ids are ignored, so the
// operation is idempotent. It produces no trades.
func (b *Book) CancelOrder(id OrderID) []Event {
	n, ok := b.orders[id]
	if !ok {
		return nil
	}

	ord := n.order
	side := b.sideFor(ord.Side)
	l := n.level
	l.total -= ord.Remaining
	l.unlink(n)
	if l.head == nil {
		side.removeLevel(l)
	}
	delete(b.orders, id)

	return []Event{OrderRemovedEvent{
		OrderID:   id,
		Side:      ord.Side,
		Price:     ord.Price,
		Reason:    RemoveReasonCanceled,
		Remaining: ord.Remaining,
	}}
}

// ModifyOrder cancels the existing order and resubmits it with the new side,
// price and quantity, keeping the original order type. The replacement
// re-enters at the back of whatever level it lands in, so a modification
// always loses queue-time priority. Unknown ids are ignored.
func (b *Book) ModifyOrder(m Modify) ([]Trade, []Event, error) {
	n, ok := b.orders[m.ID]
	if !ok {
		return nil, nil, nil
	}

	typ := n.order.Type
	events := b.CancelOrder(m.ID)
	trades, addEvents, err := b.AddOrder(Order{
		ID:       m.ID,
		Side:     m.Side,
		Type:     typ,
		Price:    m.Price,
		Quantity: m.Quantity,
	})
	return trades, append(events, addEvents...), err
}

// Size returns the number of currently resting orders.
func (b *Book) Size() int { return len(b.orders) }

// BestBid returns the top bid level, if any.
func (b *Book) BestBid() (DepthLevel, bool) {
	if l := b.bids.best(); l != nil {
		return DepthLevel{Price: l.price, Quantity: l.total}, true
	}
	return DepthLevel{}, false
}

// BestAsk returns the top ask level, if any.
func (b *Book) BestAsk() (DepthLevel, bool) {
	if l := b.asks.best(); l != nil {
		return DepthLevel{Price: l.price, Quantity: l.total}, true
	}
	return DepthLevel{}, false
}

// Depth aggregates every price level into (price, total remaining), each
// side ordered by matching priority. Pure read, no side effects.
func (b *Book) Depth() Depth {
	d := Depth{
		Bids: make([]DepthLevel, 0, b.bids.levels.Len()),
		Asks: make([]DepthLevel, 0, b.asks.levels.Len()),
	}
	b.bids.scanBest(func(l *level) bool {
		d.Bids = append(d.Bids, DepthLevel{Price: l.price, Quantity: l.total})
		return true
	})
	b.asks.scanBest(func(l *level) bool {
		d.Asks = append(d.Asks, DepthLevel{Price: l.price, Quantity: l.total})
		return true
	})
	return d
}

// match drains crossed levels front-to-front until the book is uncrossed,
// then evicts any FillAndKill order left at the top of either side.
func (b *Book) match() ([]Trade, []Event, error) {
	var trades []Trade
	var events []Event

	for {
		bid := b.bids.best()
		ask := b.asks.best()
		if bid == nil || ask == nil || bid.price < ask.price {
			break
		}

		for bid.head != nil && ask.head != nil {
			buy := bid.head.order
			sell := ask.head.order

			qty := min(buy.Remaining, sell.Remaining)
			if err := buy.Fill(qty); err != nil {
				return trades, events, err
			}
			if err := sell.Fill(qty); err != nil {
				return trades, events, err
			}
			bid.total -= qty
			ask.total -= qty

			// Each leg executes at its own resting price.
			bidLeg := TradeLeg{OrderID: buy.ID, Price: buy.Price, Quantity: qty}
			askLeg := TradeLeg{OrderID: sell.ID, Price: sell.Price, Quantity: qty}
			trades = append(trades, Trade{Bid: bidLeg, Ask: askLeg})
			events = append(events, TradeEvent{Bid: bidLeg, Ask: askLeg})

			if buy.IsFilled() {
				bid.unlink(bid.head)
				delete(b.orders, buy.ID)
				events = append(events, OrderRemovedEvent{
					OrderID: buy.ID,
					Side:    SideBuy,
					Price:   buy.Price,
					Reason:  RemoveReasonFilled,
				})
			} else {
				events = append(events, OrderReducedEvent{
					OrderID:   buy.ID,
					Side:      SideBuy,
					Price:     buy.Price,
					Delta:     -qty,
					Remaining: buy.Remaining,
				})
			}

			if sell.IsFilled() {
				ask.unlink(ask.head)
				delete(b.orders, sell.ID)
				events = append(events, OrderRemovedEvent{
					OrderID: sell.ID,
					Side:    SideSell,
					Price:   sell.Price,
					Reason:  RemoveReasonFilled,
				})
			} else {
				events = append(events, OrderReducedEvent{
					OrderID:   sell.ID,
					Side:      SideSell,
					Price:     sell.Price,
					Delta:     -qty,
					Remaining: sell.Remaining,
				})
			}
		}

		if bid.head == nil {
			b.bids.removeLevel(bid)
		}
		if ask.head == nil {
			b.asks.removeLevel(ask)
		}
	}

	// A FillAndKill order still topping a side could not be fully satisfied
	// and must not survive past this call.
	if bid := b.bids.best(); bid != nil && bid.head.order.Type == FillAndKill {
		events = append(events, b.CancelOrder(bid.head.order.ID)...)
	}
	if ask := b.asks.best(); ask != nil && ask.head.order.Type == FillAndKill {
		events = append(events, b.CancelOrder(ask.head.order.ID)...)
	}

	return trades, events, nil
}
