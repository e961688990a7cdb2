package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gtc(id OrderID, side Side, price Price, qty Quantity) Order {
	return Order{ID: id, Side: side, Type: GoodTillCancel, Price: price, Quantity: qty}
}

func fak(id OrderID, side Side, price Price, qty Quantity) Order {
	return Order{ID: id, Side: side, Type: FillAndKill, Price: price, Quantity: qty}
}

// requireNotCrossed asserts the at-rest book invariant: either one side is
// empty, or best bid is strictly below best ask.
func requireNotCrossed(t *testing.T, b *Book) {
	t.Helper()
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if okBid && okAsk {
		require.Less(t, int64(bid.Price), int64(ask.Price), "book is crossed at rest")
	}
}

func TestAddAndCancel(t *testing.T) {
	b := NewBook()

	trades, events, err := b.AddOrder(gtc(1, SideBuy, 100, 10))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 1, b.Size())
	require.Len(t, events, 1)
	rested, ok := events[0].(OrderRestedEvent)
	require.True(t, ok, "expected OrderRestedEvent, got %T", events[0])
	assert.Equal(t, OrderID(1), rested.OrderID)

	events = b.CancelOrder(1)
	assert.Equal(t, 0, b.Size())
	require.Len(t, events, 1)
	removed, ok := events[0].(OrderRemovedEvent)
	require.True(t, ok, "expected OrderRemovedEvent, got %T", events[0])
	assert.Equal(t, RemoveReasonCanceled, removed.Reason)
	assert.Equal(t, Quantity(10), removed.Remaining)
}

func TestPartialFillAgainstRestingBid(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 10))
	require.NoError(t, err)

	trades, _, err := b.AddOrder(gtc(2, SideSell, 100, 5))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, TradeLeg{OrderID: 1, Price: 100, Quantity: 5}, trades[0].Bid)
	assert.Equal(t, TradeLeg{OrderID: 2, Price: 100, Quantity: 5}, trades[0].Ask)

	// id=1 still resting with the remainder, id=2 fully filled and gone.
	assert.Equal(t, 1, b.Size())
	d := b.Depth()
	require.Len(t, d.Bids, 1)
	assert.Equal(t, DepthLevel{Price: 100, Quantity: 5}, d.Bids[0])
	assert.Empty(t, d.Asks)
	requireNotCrossed(t, b)
}

func TestFillAndKillPartialFill(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 5))
	require.NoError(t, err)

	// FAK sell for less than the resting bid: fills completely.
	trades, _, err := b.AddOrder(fak(3, SideSell, 100, 3))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, TradeLeg{OrderID: 1, Price: 100, Quantity: 3}, trades[0].Bid)
	assert.Equal(t, TradeLeg{OrderID: 3, Price: 100, Quantity: 3}, trades[0].Ask)
	assert.Equal(t, 1, b.Size())

	// FAK sell for more than the remaining bid: fills what it can, the
	// remainder is discarded rather than rested.
	trades, _, err = b.AddOrder(fak(4, SideSell, 100, 50))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(2), trades[0].Ask.Quantity)
	assert.Equal(t, 0, b.Size())
	requireNotCrossed(t, b)
}

func TestFillAndKillRejectedWhenNotCrossing(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(9, SideSell, 100, 5))
	require.NoError(t, err)

	// 99 < 100: cannot match, rejected outright with no state change.
	trades, events, err := b.AddOrder(fak(10, SideBuy, 99, 5))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, events)
	assert.Equal(t, 1, b.Size())
}

func TestFillAndKillNeverRestsOnEmptyBook(t *testing.T) {
	b := NewBook()
	trades, events, err := b.AddOrder(fak(1, SideBuy, 100, 10))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, events)
	assert.Equal(t, 0, b.Size())
}

func TestDuplicateIDRejected(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 10))
	require.NoError(t, err)

	trades, events, err := b.AddOrder(gtc(1, SideSell, 90, 3))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, events)
	assert.Equal(t, 1, b.Size())

	d := b.Depth()
	require.Len(t, d.Bids, 1)
	assert.Empty(t, d.Asks, "duplicate must not mutate the book")
}

func TestCancelIdempotent(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 10))
	require.NoError(t, err)

	assert.Nil(t, b.CancelOrder(42), "unknown id is a no-op")
	assert.Equal(t, 1, b.Size())

	b.CancelOrder(1)
	assert.Nil(t, b.CancelOrder(1), "second cancel is a no-op")
	assert.Equal(t, 0, b.Size())
	d := b.Depth()
	assert.Empty(t, d.Bids)
}

func TestFIFOWithinLevel(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 5)) // A
	require.NoError(t, err)
	_, _, err = b.AddOrder(gtc(2, SideBuy, 100, 5)) // B
	require.NoError(t, err)

	// A must fill completely before B receives any fill.
	trades, _, err := b.AddOrder(gtc(3, SideSell, 100, 7))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(1), trades[0].Bid.OrderID)
	assert.Equal(t, Quantity(5), trades[0].Bid.Quantity)
	assert.Equal(t, OrderID(2), trades[1].Bid.OrderID)
	assert.Equal(t, Quantity(2), trades[1].Bid.Quantity)
}

func TestPricePriorityAcrossLevels(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideSell, 101, 5))
	require.NoError(t, err)
	_, _, err = b.AddOrder(gtc(2, SideSell, 100, 5))
	require.NoError(t, err)

	// The better-priced ask (100) must be exhausted before 101 trades.
	trades, _, err := b.AddOrder(gtc(3, SideBuy, 101, 8))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(2), trades[0].Ask.OrderID)
	assert.Equal(t, Quantity(5), trades[0].Ask.Quantity)
	assert.Equal(t, OrderID(1), trades[1].Ask.OrderID)
	assert.Equal(t, Quantity(3), trades[1].Ask.Quantity)
	requireNotCrossed(t, b)
}

func TestTradeLegsCarryOwnRestingPrices(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideSell, 100, 5))
	require.NoError(t, err)

	// Aggressive bid at 105 crosses the ask at 100; each leg executes at
	// its own price.
	trades, _, err := b.AddOrder(gtc(2, SideBuy, 105, 5))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Price(105), trades[0].Bid.Price)
	assert.Equal(t, Price(100), trades[0].Ask.Price)
	assert.Equal(t, 0, b.Size())
}

func TestConservation(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 10))
	require.NoError(t, err)
	_, _, err = b.AddOrder(gtc(2, SideBuy, 99, 4))
	require.NoError(t, err)

	trades, _, err := b.AddOrder(gtc(3, SideSell, 99, 12))
	require.NoError(t, err)

	var total Quantity
	for _, tr := range trades {
		assert.Equal(t, tr.Bid.Quantity, tr.Ask.Quantity, "legs must carry equal quantity")
		total += tr.Ask.Quantity
	}
	assert.Equal(t, Quantity(12), total)
	assert.Equal(t, 1, b.Size()) // id=2 left with 2 remaining
	d := b.Depth()
	require.Len(t, d.Bids, 1)
	assert.Equal(t, DepthLevel{Price: 99, Quantity: 2}, d.Bids[0])
	requireNotCrossed(t, b)
}

func TestModifyLosesTimePriority(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 100, 2))
	require.NoError(t, err)
	_, _, err = b.AddOrder(gtc(2, SideBuy, 101, 3))
	require.NoError(t, err)

	// Move id=1 up to 101: it re-enters at the back of the 101 level.
	trades, _, err := b.ModifyOrder(Modify{ID: 1, Side: SideBuy, Price: 101, Quantity: 2})
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 2, b.Size())

	d := b.Depth()
	require.Len(t, d.Bids, 1)
	assert.Equal(t, DepthLevel{Price: 101, Quantity: 5}, d.Bids[0])

	// id=2 was there first, so it fills first.
	trades, _, err = b.AddOrder(gtc(3, SideSell, 101, 3))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(2), trades[0].Bid.OrderID)
}

func TestModifyUnknownIDIgnored(t *testing.T) {
	b := NewBook()
	trades, events, err := b.ModifyOrder(Modify{ID: 7, Side: SideBuy, Price: 100, Quantity: 5})
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, events)
	assert.Equal(t, 0, b.Size())
}

func TestModifyCanTrade(t *testing.T) {
	b := NewBook()
	_, _, err := b.AddOrder(gtc(1, SideBuy, 99, 5))
	require.NoError(t, err)
	_, _, err = b.AddOrder(gtc(2, SideSell, 101, 5))
	require.NoError(t, err)

	// Repricing the bid across the spread executes immediately.
	trades, _, err := b.ModifyOrder(Modify{ID: 1, Side: SideBuy, Price: 101, Quantity: 5})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(1), trades[0].Bid.OrderID)
	assert.Equal(t, OrderID(2), trades[0].Ask.OrderID)
	assert.Equal(t, 0, b.Size())
	requireNotCrossed(t, b)
}

func TestDepthOrdering(t *testing.T) {
	b := NewBook()
	for _, o := range []Order{
		gtc(1, SideBuy, 98, 1),
		gtc(2, SideBuy, 100, 2),
		gtc(3, SideBuy, 99, 3),
		gtc(4, SideBuy, 100, 4),
		gtc(5, SideSell, 103, 5),
		gtc(6, SideSell, 101, 6),
		gtc(7, SideSell, 102, 7),
	} {
		_, _, err := b.AddOrder(o)
		require.NoError(t, err)
	}

	d := b.Depth()
	assert.Equal(t, []DepthLevel{{100, 6}, {99, 3}, {98, 1}}, d.Bids)
	assert.Equal(t, []DepthLevel{{101, 6}, {102, 7}, {103, 5}}, d.Asks)
	requireNotCrossed(t, b)
}

func TestBookNeverCrossedAfterEveryOperation(t *testing.T) {
	b := NewBook()
	script := []Order{
		gtc(1, SideBuy, 100, 10),
		gtc(2, SideSell, 105, 8),
		gtc(3, SideBuy, 104, 3),
		gtc(4, SideSell, 100, 6),
		fak(5, SideBuy, 105, 20),
		gtc(6, SideSell, 103, 4),
		gtc(7, SideBuy, 103, 4),
	}
	for _, o := range script {
		_, _, err := b.AddOrder(o)
		require.NoError(t, err)
		requireNotCrossed(t, b)
	}
	b.CancelOrder(1)
	requireNotCrossed(t, b)
	_, _, err := b.ModifyOrder(Modify{ID: 2, Side: SideSell, Price: 101, Quantity: 8})
	require.NoError(t, err)
	requireNotCrossed(t, b)
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
}

func TestOrderFill(t *testing.T) {
	o := &Order{ID: 1, Side: SideBuy, Type: GoodTillCancel, Price: 100, Quantity: 10, Remaining: 10}

	require.NoError(t, o.Fill(4))
	assert.Equal(t, Quantity(6), o.Remaining)
	assert.Equal(t, Quantity(4), o.FilledQuantity())
	assert.False(t, o.IsFilled())

	err := o.Fill(7)
	require.ErrorIs(t, err, ErrOverfill)
	assert.Equal(t, Quantity(6), o.Remaining, "failed fill must not mutate")

	require.NoError(t, o.Fill(6))
	assert.True(t, o.IsFilled())
}
