package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"limitbook/internal/bots"
	"limitbook/internal/bots/strategy"
	"limitbook/internal/orderbook/core"
)

// Runner executes a bot strategy on a timer.
type Runner struct {
	cfg      Config
	botID    bots.BotID
	strategy strategy.Strategy
	mr       strategy.MarketReader
	sender   strategy.OrderSender

	events        chan bots.BotEvent
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner creates a new Runner.
func NewRunner(
	cfg Config,
	botID bots.BotID,
	strat strategy.Strategy,
	mr strategy.MarketReader,
	sender strategy.OrderSender,
) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	r := &Runner{
		cfg:      cfg,
		botID:    botID,
		strategy: strat,
		mr:       mr,
		sender:   sender,
		events:   make(chan bots.BotEvent, cfg.EventBuffer),
		closed:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()
	defer close(r.events)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TickInterval)
	defer cancel()

	now := time.Now().UnixNano()

	intents, events := r.strategy.Step(ctx, now, r.mr)

	for _, intent := range intents {
		r.executeIntent(ctx, intent)
	}

	for _, ev := range events {
		r.emitEvent(ev)
	}
}

func (r *Runner) executeIntent(ctx context.Context, intent bots.OrderIntent) {
	var err error

	switch intent.Kind {
	case bots.IntentPlace:
		var id core.OrderID
		id, err = r.sender.NextID(intent.Symbol)
		if err == nil {
			_, err = r.sender.AddOrder(ctx, intent.Symbol, core.Order{
				ID:       id,
				Side:     intent.Side,
				Type:     intent.Type,
				Price:    intent.Price,
				Quantity: intent.Quantity,
			})
		}
	case bots.IntentCancel:
		err = r.sender.CancelOrder(ctx, intent.Symbol, intent.OrderID)
	case bots.IntentModify:
		_, err = r.sender.ModifyOrder(ctx, intent.Symbol, core.Modify{
			ID:       intent.OrderID,
			Side:     intent.Side,
			Price:    intent.Price,
			Quantity: intent.Quantity,
		})
	}

	if err != nil {
		r.emitEvent(bots.BotEvent{
			BotID:   r.botID,
			Time:    time.Now().UnixNano(),
			Type:    bots.BotEventError,
			Message: err.Error(),
		})
	}
}

func (r *Runner) emitEvent(ev bots.BotEvent) {
	if r.cfg.DropEvents {
		select {
		case r.events <- ev:
		default:
			r.droppedEvents.Add(1)
		}
	} else {
		select {
		case r.events <- ev:
		case <-r.closed:
		}
	}
}

// Events returns the bot events channel.
func (r *Runner) Events() <-chan bots.BotEvent {
	return r.events
}

// DroppedEvents returns the count of dropped events.
func (r *Runner) DroppedEvents() int64 {
	return r.droppedEvents.Load()
}

// Close shuts down the runner.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}
