package strategy

import (
	"context"
	"math/rand"

	"limitbook/internal/bots"
	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
)

// RandomStrategy keeps the book alive by placing mostly passive limit orders
// around the current top of book, occasionally crossing with a FillAndKill
// and occasionally canceling or repricing a resting order. A fixed seed makes
// a run reproducible.
type RandomStrategy struct {
	botID     bots.BotID
	rng       *rand.Rand
	basePrice core.Price // anchor when the book is empty
	maxQty    core.Quantity
}

// NewRandomStrategy creates a new RandomStrategy.
func NewRandomStrategy(botID bots.BotID, seed int64, basePrice core.Price, maxQty core.Quantity) *RandomStrategy {
	if basePrice <= 0 {
		basePrice = 10000
	}
	if maxQty <= 0 {
		maxQty = 10
	}
	return &RandomStrategy{
		botID:     botID,
		rng:       rand.New(rand.NewSource(seed)),
		basePrice: basePrice,
		maxQty:    maxQty,
	}
}

// Step implements Strategy.
func (s *RandomStrategy) Step(ctx context.Context, now int64, mr MarketReader) ([]bots.OrderIntent, []bots.BotEvent) {
	instruments := mr.GetInstruments()
	if len(instruments) == 0 {
		return nil, nil
	}
	in := instruments[s.rng.Intn(len(instruments))]

	var intents []bots.OrderIntent
	var events []bots.BotEvent

	roll := s.rng.Intn(100)
	switch {
	case roll < 70:
		intents = append(intents, s.placeIntent(mr, in.Symbol))
	case roll < 85:
		if intent, ok := s.cancelIntent(mr, in.Symbol); ok {
			intents = append(intents, intent)
		}
	default:
		if intent, ok := s.modifyIntent(mr, in.Symbol); ok {
			intents = append(intents, intent)
		}
	}

	for i := range intents {
		events = append(events, bots.BotEvent{
			BotID:  s.botID,
			Time:   now,
			Type:   eventTypeFor(intents[i].Kind),
			Intent: &intents[i],
		})
	}
	return intents, events
}

func eventTypeFor(k bots.IntentKind) bots.BotEventType {
	switch k {
	case bots.IntentCancel:
		return bots.BotEventCanceled
	case bots.IntentModify:
		return bots.BotEventModified
	default:
		return bots.BotEventPlacedOrder
	}
}

// mid returns the price to quote around: the midpoint when both sides exist,
// the surviving side when one is empty, the anchor otherwise.
func (s *RandomStrategy) mid(mr MarketReader, sym market.Symbol) core.Price {
	bids, _ := mr.GetLevels(sym, core.SideBuy)
	asks, _ := mr.GetLevels(sym, core.SideSell)
	switch {
	case len(bids) > 0 && len(asks) > 0:
		return (bids[0].Price + asks[0].Price) / 2
	case len(bids) > 0:
		return bids[0].Price
	case len(asks) > 0:
		return asks[0].Price
	default:
		return s.basePrice
	}
}

func (s *RandomStrategy) placeIntent(mr MarketReader, sym market.Symbol) bots.OrderIntent {
	mid := s.mid(mr, sym)
	side := core.SideBuy
	if s.rng.Intn(2) == 1 {
		side = core.SideSell
	}

	// Mostly rest a few ticks behind the touch; sometimes cross with a FAK.
	typ := core.GoodTillCancel
	offset := core.Price(1 + s.rng.Intn(5))
	if s.rng.Intn(10) == 0 {
		typ = core.FillAndKill
		offset = -offset
	}

	price := mid - offset
	if side == core.SideSell {
		price = mid + offset
	}
	if price <= 0 {
		price = 1
	}

	return bots.OrderIntent{
		Kind:     bots.IntentPlace,
		Symbol:   sym,
		Type:     typ,
		Side:     side,
		Price:    price,
		Quantity: core.Quantity(1 + s.rng.Int63n(int64(s.maxQty))),
	}
}

func (s *RandomStrategy) pickResting(mr MarketReader, sym market.Symbol) (core.OrderID, core.Side, bool) {
	side := core.SideBuy
	if s.rng.Intn(2) == 1 {
		side = core.SideSell
	}
	orders, err := mr.GetOrders(sym, side)
	if err != nil || len(orders) == 0 {
		return 0, side, false
	}
	return orders[s.rng.Intn(len(orders))].ID, side, true
}

func (s *RandomStrategy) cancelIntent(mr MarketReader, sym market.Symbol) (bots.OrderIntent, bool) {
	id, _, ok := s.pickResting(mr, sym)
	if !ok {
		return bots.OrderIntent{}, false
	}
	return bots.OrderIntent{
		Kind:    bots.IntentCancel,
		Symbol:  sym,
		OrderID: id,
	}, true
}

func (s *RandomStrategy) modifyIntent(mr MarketReader, sym market.Symbol) (bots.OrderIntent, bool) {
	id, side, ok := s.pickResting(mr, sym)
	if !ok {
		return bots.OrderIntent{}, false
	}
	price := s.mid(mr, sym) + core.Price(s.rng.Intn(7)-3)
	if price <= 0 {
		price = 1
	}
	return bots.OrderIntent{
		Kind:     bots.IntentModify,
		Symbol:   sym,
		OrderID:  id,
		Side:     side,
		Price:    price,
		Quantity: core.Quantity(1 + s.rng.Int63n(int64(s.maxQty))),
	}, true
}
