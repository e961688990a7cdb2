package view

import (
	"testing"

	"limitbook/internal/orderbook/core"
)

func TestViewLevelsFromEvents(t *testing.T) {
	v := NewBookView(10)

	v.Apply(core.OrderRestedEvent{OrderID: 1, Side: core.SideBuy, Price: 100, Quantity: 10})
	v.Apply(core.OrderRestedEvent{OrderID: 2, Side: core.SideBuy, Price: 100, Quantity: 5})
	v.Apply(core.OrderRestedEvent{OrderID: 3, Side: core.SideBuy, Price: 99, Quantity: 7})
	v.Apply(core.OrderRestedEvent{OrderID: 4, Side: core.SideSell, Price: 101, Quantity: 3})

	bids := v.Levels(core.SideBuy)
	if len(bids) != 2 {
		t.Fatalf("expected 2 bid levels, got %d", len(bids))
	}
	if bids[0].Price != 100 || bids[0].Quantity != 15 {
		t.Errorf("expected best bid 100x15, got %+v", bids[0])
	}
	if bids[1].Price != 99 || bids[1].Quantity != 7 {
		t.Errorf("expected second bid 99x7, got %+v", bids[1])
	}

	asks := v.Levels(core.SideSell)
	if len(asks) != 1 || asks[0].Price != 101 || asks[0].Quantity != 3 {
		t.Errorf("expected single ask 101x3, got %+v", asks)
	}
}

func TestViewReduceAndRemove(t *testing.T) {
	v := NewBookView(10)

	v.Apply(core.OrderRestedEvent{OrderID: 1, Side: core.SideBuy, Price: 100, Quantity: 10})
	v.Apply(core.OrderReducedEvent{OrderID: 1, Side: core.SideBuy, Price: 100, Delta: -4, Remaining: 6})

	bids := v.Levels(core.SideBuy)
	if len(bids) != 1 || bids[0].Quantity != 6 {
		t.Fatalf("expected level quantity 6 after reduce, got %+v", bids)
	}

	v.Apply(core.OrderRemovedEvent{OrderID: 1, Side: core.SideBuy, Price: 100, Reason: core.RemoveReasonFilled})
	bids = v.Levels(core.SideBuy)
	if len(bids) != 0 {
		t.Errorf("expected no bid levels after removal, got %+v", bids)
	}
	if len(v.Orders(core.SideBuy)) != 0 {
		t.Error("expected no resting orders after removal")
	}
}

func TestViewOrdersOrdering(t *testing.T) {
	v := NewBookView(10)

	v.Apply(core.OrderRestedEvent{OrderID: 5, Side: core.SideSell, Price: 102, Quantity: 1})
	v.Apply(core.OrderRestedEvent{OrderID: 6, Side: core.SideSell, Price: 101, Quantity: 2})
	v.Apply(core.OrderRestedEvent{OrderID: 7, Side: core.SideSell, Price: 101, Quantity: 3})

	orders := v.Orders(core.SideSell)
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	// best price first, then arrival order within the level
	want := []core.OrderID{6, 7, 5}
	for i, w := range want {
		if orders[i].ID != w {
			t.Errorf("position %d: expected order %d, got %d", i, w, orders[i].ID)
		}
	}
}

func TestTradeTapeWraps(t *testing.T) {
	tape := NewTradeTape(3)
	for i := 1; i <= 5; i++ {
		tape.Append(core.TradeEvent{
			Bid: core.TradeLeg{OrderID: core.OrderID(i), Price: 100, Quantity: 1},
			Ask: core.TradeLeg{OrderID: core.OrderID(i + 100), Price: 100, Quantity: 1},
		})
	}

	if tape.Count() != 3 {
		t.Fatalf("expected count 3, got %d", tape.Count())
	}
	last := tape.Last(2)
	if len(last) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(last))
	}
	if last[0].Bid.OrderID != 4 || last[1].Bid.OrderID != 5 {
		t.Errorf("expected trades 4,5 in order, got %d,%d", last[0].Bid.OrderID, last[1].Bid.OrderID)
	}
}
