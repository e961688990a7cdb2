package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"limitbook/internal/orderbook/core"
)

func TestServiceBasic(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	id := svc.NextID()
	trades, err := svc.AddOrder(ctx, core.Order{
		ID:       id,
		Side:     core.SideBuy,
		Type:     core.GoodTillCancel,
		Price:    100,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}

	// Check view is updated
	time.Sleep(10 * time.Millisecond) // wait for event dispatcher
	levels := svc.GetLevels(core.SideBuy)
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	if levels[0].Price != 100 {
		t.Errorf("expected price 100, got %d", levels[0].Price)
	}
	if levels[0].Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", levels[0].Quantity)
	}
}

func TestServiceMatch(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	buyID := svc.NextID()
	if _, err := svc.AddOrder(ctx, core.Order{
		ID: buyID, Side: core.SideBuy, Type: core.GoodTillCancel, Price: 100, Quantity: 10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sellID := svc.NextID()
	trades, err := svc.AddOrder(ctx, core.Order{
		ID: sellID, Side: core.SideSell, Type: core.GoodTillCancel, Price: 100, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Bid.OrderID != buyID || trades[0].Ask.OrderID != sellID {
		t.Errorf("unexpected trade legs: %+v", trades[0])
	}
	if trades[0].Bid.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", trades[0].Bid.Quantity)
	}

	time.Sleep(10 * time.Millisecond)
	d := svc.Depth()
	if len(d.Bids) != 1 || d.Bids[0].Quantity != 6 {
		t.Errorf("expected bid level with quantity 6, got %+v", d.Bids)
	}
	if len(d.Asks) != 0 {
		t.Errorf("expected no ask levels, got %+v", d.Asks)
	}
}

func TestServiceConcurrent(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()
	var wg sync.WaitGroup

	// Submit many orders concurrently
	numOrders := 100
	wg.Add(numOrders)
	for i := 0; i < numOrders; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddOrder(ctx, core.Order{
				ID:       svc.NextID(),
				Side:     core.SideBuy,
				Type:     core.GoodTillCancel,
				Price:    core.Price(100 + i%10),
				Quantity: 1,
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Wait for events to be processed
	time.Sleep(50 * time.Millisecond)

	orders := svc.GetOrders(core.SideBuy)
	if len(orders) != numOrders {
		t.Errorf("expected %d orders, got %d", numOrders, len(orders))
	}
}

func TestServiceCancel(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	id := svc.NextID()
	if _, err := svc.AddOrder(ctx, core.Order{
		ID: id, Side: core.SideBuy, Type: core.GoodTillCancel, Price: 100, Quantity: 10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.CancelOrder(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	orders := svc.GetOrders(core.SideBuy)
	if len(orders) != 0 {
		t.Errorf("expected 0 orders, got %d", len(orders))
	}
}

func TestServiceModify(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	id := svc.NextID()
	if _, err := svc.AddOrder(ctx, core.Order{
		ID: id, Side: core.SideBuy, Type: core.GoodTillCancel, Price: 100, Quantity: 10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trades, err := svc.ModifyOrder(ctx, core.Modify{ID: id, Side: core.SideBuy, Price: 101, Quantity: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}

	time.Sleep(10 * time.Millisecond)
	levels := svc.GetLevels(core.SideBuy)
	if len(levels) != 1 || levels[0].Price != 101 || levels[0].Quantity != 5 {
		t.Errorf("expected single level 101x5, got %+v", levels)
	}
}

func TestServiceEvents(t *testing.T) {
	svc := NewService(DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	events := svc.Events()

	if _, err := svc.AddOrder(ctx, core.Order{
		ID: svc.NextID(), Side: core.SideBuy, Type: core.GoodTillCancel, Price: 100, Quantity: 10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case ev := <-events:
		if _, ok := ev.(core.OrderRestedEvent); !ok {
			t.Errorf("expected OrderRestedEvent, got %T", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}
