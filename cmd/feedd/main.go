package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"limitbook/internal/feed"
	"limitbook/internal/market"
	"limitbook/internal/sim"
)

func main() {
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	symbols := flag.String("symbols", "AAPL,GOOG,MSFT", "comma-separated instrument symbols")
	numBots := flag.Int("bots", 3, "number of background bots (0 disables)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var instruments []market.Instrument
	for _, v := range strings.Split(*symbols, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		instruments = append(instruments, market.Instrument{Symbol: market.Symbol(v), Name: v, Decimals: 2})
	}
	if len(instruments) == 0 {
		log.Fatal("no instruments configured")
	}

	cfg := sim.DefaultConfig()
	cfg.Instruments = instruments
	if *numBots < len(cfg.Bots) {
		cfg.Bots = cfg.Bots[:*numBots]
	}
	for len(cfg.Bots) < *numBots {
		b := cfg.Bots[0]
		b.Seed += int64(len(cfg.Bots))
		cfg.Bots = append(cfg.Bots, b)
	}

	s := sim.New(cfg)
	defer s.Close()

	feedCfg := feed.DefaultConfig()
	feedCfg.ListenAddr = *listenAddr
	srv := feed.NewServer(feedCfg, log, s.Market)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting feed daemon",
		zap.String("listen", *listenAddr),
		zap.Int("instruments", len(instruments)),
		zap.Int("bots", *numBots))

	if err := srv.Run(ctx); err != nil {
		log.Error("feed server exited", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shut down cleanly")
}
