package service

import (
	"context"
	"sync"
	"sync/atomic"

	"limitbook/internal/orderbook/core"
	"limitbook/internal/orderbook/view"
)

// command types
type cmdType int

const (
	cmdAdd cmdType = iota
	cmdCancel
	cmdModify
)

type command struct {
	typ    cmdType
	order  core.Order
	modify core.Modify
	id     core.OrderID // for cancel
	respCh chan<- response
}

type response struct {
	trades []core.Trade
	err    error
}

// Service owns one Book and its view, providing thread-safe access. All
// mutations flow through a single command goroutine, so the core never sees
// concurrent calls.
type Service struct {
	cfg  Config
	book *core.Book
	view *view.BookView

	idGen atomic.Uint64

	cmdCh          chan command
	internalEvents chan core.Event
	externalEvents chan core.Event

	droppedExternal atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates a new orderbook Service.
func NewService(cfg Config) *Service {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.TradeTapeSize <= 0 {
		cfg.TradeTapeSize = DefaultConfig().TradeTapeSize
	}
	if cfg.ExternalEventBuffer <= 0 {
		cfg.ExternalEventBuffer = DefaultConfig().ExternalEventBuffer
	}

	s := &Service{
		cfg:            cfg,
		book:           core.NewBook(),
		view:           view.NewBookView(cfg.TradeTapeSize),
		cmdCh:          make(chan command, cfg.CommandBuffer),
		internalEvents: make(chan core.Event, cfg.EventBuffer),
		externalEvents: make(chan core.Event, cfg.ExternalEventBuffer),
		closed:         make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runCommandProcessor()

	s.wg.Add(1)
	go s.runEventDispatcher()

	return s
}

// NextID returns a fresh order id, unique for the lifetime of the service.
func (s *Service) NextID() core.OrderID {
	return core.OrderID(s.idGen.Add(1))
}

func (s *Service) runCommandProcessor() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closed:
			return
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response
	var events []core.Event

	switch cmd.typ {
	case cmdAdd:
		resp.trades, events, resp.err = s.book.AddOrder(cmd.order)
	case cmdCancel:
		events = s.book.CancelOrder(cmd.id)
	case cmdModify:
		resp.trades, events, resp.err = s.book.ModifyOrder(cmd.modify)
	}

	for _, ev := range events {
		s.emitEvent(ev)
	}

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

func (s *Service) emitEvent(ev core.Event) {
	select {
	case s.internalEvents <- ev:
	case <-s.closed:
	}
}

func (s *Service) runEventDispatcher() {
	defer s.wg.Done()
	defer close(s.externalEvents)

	for {
		select {
		case <-s.closed:
			return
		case ev := <-s.internalEvents:
			// Always update view (authoritative)
			s.view.Apply(ev)

			if s.cfg.DropExternalEvents {
				select {
				case s.externalEvents <- ev:
				default:
					s.droppedExternal.Add(1)
				}
			} else {
				select {
				case s.externalEvents <- ev:
				case <-s.closed:
					return
				}
			}
		}
	}
}

func (s *Service) roundTrip(ctx context.Context, cmd command, respCh chan response) ([]core.Trade, error) {
	select {
	case <-s.closed:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.cmdCh <- cmd:
	}

	select {
	case <-s.closed:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		return resp.trades, resp.err
	}
}

// AddOrder submits an order and returns the trades it produced. The order id
// must come from NextID or be otherwise unique; duplicates are silently
// ignored by the book.
func (s *Service) AddOrder(ctx context.Context, o core.Order) ([]core.Trade, error) {
	respCh := make(chan response, 1)
	return s.roundTrip(ctx, command{typ: cmdAdd, order: o, respCh: respCh}, respCh)
}

// CancelOrder cancels a resting order. Unknown ids are a no-op.
func (s *Service) CancelOrder(ctx context.Context, id core.OrderID) error {
	respCh := make(chan response, 1)
	_, err := s.roundTrip(ctx, command{typ: cmdCancel, id: id, respCh: respCh}, respCh)
	return err
}

// ModifyOrder reprices or resizes a resting order, losing its queue
// priority. Unknown ids are a no-op.
func (s *Service) ModifyOrder(ctx context.Context, m core.Modify) ([]core.Trade, error) {
	respCh := make(chan response, 1)
	return s.roundTrip(ctx, command{typ: cmdModify, modify: m, respCh: respCh}, respCh)
}

// Depth returns the current aggregated depth snapshot (from view).
func (s *Service) Depth() core.Depth {
	return s.view.Depth()
}

// GetLevels returns aggregate levels for a side (from view).
func (s *Service) GetLevels(side core.Side) []core.DepthLevel {
	return s.view.Levels(side)
}

// GetOrders returns resting orders for a side (from view).
func (s *Service) GetOrders(side core.Side) []view.RestingOrder {
	return s.view.Orders(side)
}

// GetTradesLast returns the last n trades (from view).
func (s *Service) GetTradesLast(n int) []core.TradeEvent {
	return s.view.TradesLast(n)
}

// Events returns the external events channel for subscribers.
func (s *Service) Events() <-chan core.Event {
	return s.externalEvents
}

// DroppedExternalEvents returns the count of dropped external events.
func (s *Service) DroppedExternalEvents() int64 {
	return s.droppedExternal.Load()
}

// Close shuts down the service and waits for goroutines to finish.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
