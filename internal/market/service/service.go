package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"limitbook/internal/market"
	marketview "limitbook/internal/market/view"
	"limitbook/internal/orderbook/core"
	orderbookservice "limitbook/internal/orderbook/service"
	orderbookview "limitbook/internal/orderbook/view"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// MarketService manages one book service per instrument and provides
// aggregated market data.
type MarketService struct {
	cfg         Config
	instruments map[market.Symbol]market.Instrument
	books       map[market.Symbol]*orderbookservice.Service
	mview       *marketview.MarketView

	externalEvents chan marketview.MarketEvent
	droppedEvents  atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMarketService creates a new MarketService with the given instruments.
func NewMarketService(instruments []market.Instrument, cfg Config) *MarketService {
	if cfg.MarketEventBuffer <= 0 {
		cfg.MarketEventBuffer = DefaultConfig().MarketEventBuffer
	}

	s := &MarketService{
		cfg:            cfg,
		instruments:    make(map[market.Symbol]market.Instrument, len(instruments)),
		books:          make(map[market.Symbol]*orderbookservice.Service, len(instruments)),
		mview:          marketview.NewMarketView(),
		externalEvents: make(chan marketview.MarketEvent, cfg.MarketEventBuffer),
		closed:         make(chan struct{}),
	}

	for _, in := range instruments {
		s.instruments[in.Symbol] = in
		s.books[in.Symbol] = orderbookservice.NewService(cfg.Book)
	}

	for sym, book := range s.books {
		s.wg.Add(1)
		go s.runBookEventForwarder(sym, book)
	}

	return s
}

func (s *MarketService) runBookEventForwarder(sym market.Symbol, book *orderbookservice.Service) {
	defer s.wg.Done()

	events := book.Events()
	for {
		select {
		case <-s.closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			s.mview.Apply(sym, ev)

			me := marketview.MarketEvent{
				Symbol: sym,
				Event:  ev,
			}

			if s.cfg.DropMarketEvents {
				select {
				case s.externalEvents <- me:
				default:
					s.droppedEvents.Add(1)
				}
			} else {
				select {
				case s.externalEvents <- me:
				case <-s.closed:
					return
				}
			}
		}
	}
}

// Book returns the book service for a symbol.
func (s *MarketService) Book(sym market.Symbol) (*orderbookservice.Service, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book, nil
}

// NextID returns a fresh order id from the symbol's book service.
func (s *MarketService) NextID(sym market.Symbol) (core.OrderID, error) {
	book, ok := s.books[sym]
	if !ok {
		return 0, ErrUnknownSymbol
	}
	return book.NextID(), nil
}

// AddOrder submits an order to the specified instrument's book.
func (s *MarketService) AddOrder(ctx context.Context, sym market.Symbol, o core.Order) ([]core.Trade, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book.AddOrder(ctx, o)
}

// CancelOrder cancels an order in the specified instrument's book.
func (s *MarketService) CancelOrder(ctx context.Context, sym market.Symbol, id core.OrderID) error {
	book, ok := s.books[sym]
	if !ok {
		return ErrUnknownSymbol
	}
	return book.CancelOrder(ctx, id)
}

// ModifyOrder modifies an order in the specified instrument's book.
func (s *MarketService) ModifyOrder(ctx context.Context, sym market.Symbol, m core.Modify) ([]core.Trade, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book.ModifyOrder(ctx, m)
}

// Depth returns the depth snapshot for an instrument.
func (s *MarketService) Depth(sym market.Symbol) (core.Depth, error) {
	book, ok := s.books[sym]
	if !ok {
		return core.Depth{}, ErrUnknownSymbol
	}
	return book.Depth(), nil
}

// GetLevels returns the price levels for an instrument and side.
func (s *MarketService) GetLevels(sym market.Symbol, side core.Side) ([]core.DepthLevel, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book.GetLevels(side), nil
}

// GetOrders returns the resting orders for an instrument and side.
func (s *MarketService) GetOrders(sym market.Symbol, side core.Side) ([]orderbookview.RestingOrder, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book.GetOrders(side), nil
}

// GetTradesLast returns the last n trades for an instrument.
func (s *MarketService) GetTradesLast(sym market.Symbol, n int) ([]core.TradeEvent, error) {
	book, ok := s.books[sym]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return book.GetTradesLast(n), nil
}

// Snapshot returns the current market snapshot across all instruments.
func (s *MarketService) Snapshot() marketview.MarketSnapshot {
	return s.mview.SnapshotWithBooks(s.books)
}

// Events returns the consolidated market events channel.
func (s *MarketService) Events() <-chan marketview.MarketEvent {
	return s.externalEvents
}

// DroppedEvents returns the count of dropped market events.
func (s *MarketService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// GetInstruments returns all registered instruments.
func (s *MarketService) GetInstruments() []market.Instrument {
	out := make([]market.Instrument, 0, len(s.instruments))
	for _, in := range s.instruments {
		out = append(out, in)
	}
	return out
}

// Close shuts down the market service and all book services.
func (s *MarketService) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})

	for _, book := range s.books {
		book.Close()
	}

	s.wg.Wait()
	close(s.externalEvents)
}
