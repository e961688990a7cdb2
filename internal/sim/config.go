package sim

import (
	"time"

	botrunner "limitbook/internal/bots/runner"
	"limitbook/internal/market"
	marketservice "limitbook/internal/market/service"
	"limitbook/internal/orderbook/core"
)

// BotConfig describes one background bot.
type BotConfig struct {
	// Runner is the runner configuration for this bot.
	Runner botrunner.Config
	// Seed makes the bot's order flow reproducible.
	Seed int64
	// BasePrice anchors quoting when a book is empty.
	BasePrice core.Price
	// MaxQuantity caps the size of a single bot order.
	MaxQuantity core.Quantity
}

// Config holds configuration for a simulation.
type Config struct {
	// Instruments is the list of instruments to create in the market.
	Instruments []market.Instrument
	// MarketConfig is the configuration for the market service.
	MarketConfig marketservice.Config
	// Bots is the configuration for each background bot.
	Bots []BotConfig
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	cfg := Config{
		Instruments: []market.Instrument{
			{Symbol: "AAPL", Name: "Apple Inc.", Decimals: 2},
			{Symbol: "GOOG", Name: "Alphabet Inc.", Decimals: 2},
			{Symbol: "MSFT", Name: "Microsoft Corp.", Decimals: 2},
		},
		MarketConfig: marketservice.DefaultConfig(),
	}
	for i := 0; i < 3; i++ {
		cfg.Bots = append(cfg.Bots, BotConfig{
			Runner: botrunner.Config{
				TickInterval: 200 * time.Millisecond,
				EventBuffer:  256,
				DropEvents:   true,
			},
			Seed:        int64(i + 69420),
			BasePrice:   10000,
			MaxQuantity: 10,
		})
	}
	return cfg
}
