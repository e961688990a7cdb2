package view

import (
	"sort"
	"sync"

	"limitbook/internal/orderbook/core"
)

// RestingOrder represents a snapshot of a resting order.
type RestingOrder struct {
	ID        core.OrderID
	Side      core.Side
	Price     core.Price
	Remaining core.Quantity
	Seq       uint64 // arrival order within the view
}

type orderState struct {
	side      core.Side
	price     core.Price
	remaining core.Quantity
	seq       uint64
}

// BookView maintains a read-only projection of the book, rebuilt purely from
// the event stream. It is thread-safe and returns copies, never internal
// references.
type BookView struct {
	mu     sync.RWMutex
	seq    uint64
	orders map[core.OrderID]orderState
	bids   map[core.Price]core.Quantity
	asks   map[core.Price]core.Quantity
	tape   *TradeTape
}

// NewBookView creates a new BookView with the given trade tape capacity.
func NewBookView(tapeCapacity int) *BookView {
	return &BookView{
		orders: map[core.OrderID]orderState{},
		bids:   map[core.Price]core.Quantity{},
		asks:   map[core.Price]core.Quantity{},
		tape:   NewTradeTape(tapeCapacity),
	}
}

// Apply processes an event and updates the view accordingly.
func (v *BookView) Apply(ev core.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := ev.(type) {
	case core.TradeEvent:
		v.tape.Append(e)

	case core.OrderRestedEvent:
		v.seq++
		v.orders[e.OrderID] = orderState{
			side:      e.Side,
			price:     e.Price,
			remaining: e.Quantity,
			seq:       v.seq,
		}
		if e.Side == core.SideBuy {
			v.bids[e.Price] += e.Quantity
		} else {
			v.asks[e.Price] += e.Quantity
		}

	case core.OrderReducedEvent:
		st, ok := v.orders[e.OrderID]
		if !ok {
			// if this happens, the event stream is incomplete or out of order
			return
		}
		// delta is negative; update totals by delta
		if st.side == core.SideBuy {
			v.bids[st.price] += e.Delta
			if v.bids[st.price] <= 0 {
				delete(v.bids, st.price)
			}
		} else {
			v.asks[st.price] += e.Delta
			if v.asks[st.price] <= 0 {
				delete(v.asks, st.price)
			}
		}
		st.remaining = e.Remaining
		v.orders[e.OrderID] = st

	case core.OrderRemovedEvent:
		st, ok := v.orders[e.OrderID]
		if !ok {
			return
		}
		if st.side == core.SideBuy {
			v.bids[st.price] -= st.remaining
			if v.bids[st.price] <= 0 {
				delete(v.bids, st.price)
			}
		} else {
			v.asks[st.price] -= st.remaining
			if v.asks[st.price] <= 0 {
				delete(v.asks, st.price)
			}
		}
		delete(v.orders, e.OrderID)
	}
}

// Levels returns aggregate remaining quantity at each price level, sorted
// best to worst. Returns a copy (not internal references).
func (v *BookView) Levels(side core.Side) []core.DepthLevel {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var src map[core.Price]core.Quantity
	if side == core.SideBuy {
		src = v.bids
	} else {
		src = v.asks
	}

	out := make([]core.DepthLevel, 0, len(src))
	for p, q := range src {
		out = append(out, core.DepthLevel{Price: p, Quantity: q})
	}

	sort.Slice(out, func(i, j int) bool {
		if side == core.SideBuy {
			return out[i].Price > out[j].Price // best bid is highest
		}
		return out[i].Price < out[j].Price // best ask is lowest
	})
	return out
}

// Depth returns both sides' levels as one snapshot.
func (v *BookView) Depth() core.Depth {
	return core.Depth{
		Bids: v.Levels(core.SideBuy),
		Asks: v.Levels(core.SideSell),
	}
}

// Orders returns all resting orders on a side, sorted by price (best first),
// then arrival. Returns a copy (not internal references).
func (v *BookView) Orders(side core.Side) []RestingOrder {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]RestingOrder, 0, len(v.orders))
	for id, st := range v.orders {
		if st.side != side {
			continue
		}
		out = append(out, RestingOrder{
			ID:        id,
			Side:      st.side,
			Price:     st.price,
			Remaining: st.remaining,
			Seq:       st.seq,
		})
	}

	// deterministic ordering for callers: best price then arrival
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			if side == core.SideBuy {
				return out[i].Price > out[j].Price
			}
			return out[i].Price < out[j].Price
		}
		return out[i].Seq < out[j].Seq
	})

	return out
}

// TradesLast returns the last n trades in chronological order.
// Returns a copy (not internal references).
func (v *BookView) TradesLast(n int) []core.TradeEvent {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tape.Last(n)
}
