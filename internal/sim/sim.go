package sim

import (
	"sync"

	"limitbook/internal/bots"
	botrunner "limitbook/internal/bots/runner"
	"limitbook/internal/bots/strategy"
	marketservice "limitbook/internal/market/service"
)

// Sim owns the market and its background bots and manages their lifecycle.
type Sim struct {
	Market *marketservice.MarketService
	Bots   []*botrunner.Runner

	cfg Config
	mu  sync.Mutex
}

// New creates a new Sim with the given configuration.
func New(cfg Config) *Sim {
	s := &Sim{cfg: cfg}

	s.Market = marketservice.NewMarketService(cfg.Instruments, cfg.MarketConfig)

	for i, bcfg := range cfg.Bots {
		botID := bots.BotID(i + 1)
		strat := strategy.NewRandomStrategy(botID, bcfg.Seed, bcfg.BasePrice, bcfg.MaxQuantity)

		r := botrunner.NewRunner(
			bcfg.Runner,
			botID,
			strat,
			s.Market, // MarketReader
			s.Market, // OrderSender
		)
		s.Bots = append(s.Bots, r)
	}

	return s
}

// Close shuts down all subsystems in reverse dependency order.
func (s *Sim) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop bots first so nothing writes to a closing market
	for _, b := range s.Bots {
		b.Close()
	}

	if s.Market != nil {
		s.Market.Close()
	}
}
