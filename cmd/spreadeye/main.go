package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spreadeye/internal/application/service"
	"spreadeye/internal/domain"
	"spreadeye/internal/infrastructure/config"
	"spreadeye/internal/infrastructure/container"
	"spreadeye/internal/infrastructure/exchange/binance"
	_ "spreadeye/internal/infrastructure/exchange/kraken"
	_ "spreadeye/internal/infrastructure/exchange/mexc"
	"spreadeye/internal/infrastructure/logger"
	"spreadeye/internal/infrastructure/stream"
	"spreadeye/internal/interfaces/console"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	if !cfg.Divergence.Enabled && !cfg.Volatility.Enabled {
		log.Fatal().Msg("neither divergence nor volatility enabled")
	}

	adapters := c.Adapters()
	repo := c.Repository()
	sink := console.NewSink()
	dialer := stream.NewWSDialer()
	stats := binance.NewStatsClient(cfg.Exchange.Binance.RestURL)

	done := make(chan struct{})
	running := 0

	if cfg.Divergence.Enabled {
		cache := domain.NewPriceCache(0)
		subs := service.NewSubscriptionService(service.SubscriptionDeps{
			Adapters:  adapters,
			Reference: cfg.Divergence.Reference,
			Dialer:    dialer,
			Cache:     cache,
		})
		defer subs.StopAll()

		if cfg.Divergence.Asset != "" {
			if err := subs.UpdateTarget(ctx, cfg.Divergence.Asset, cfg.Divergence.Compare); err != nil {
				log.Fatal().Err(err).Msg("initial target failed")
			}
		}

		div := service.NewDivergenceService(service.DivergenceDeps{
			Subs:            subs,
			Adapters:        adapters,
			Reference:       cfg.Divergence.Reference,
			Cache:           cache,
			Sink:            sink,
			Repo:            repo,
			Interval:        time.Duration(cfg.App.DivergenceIntervalMS) * time.Millisecond,
			SignalThreshold: cfg.Divergence.SignalThreshold,
		})

		running++
		go func() {
			defer func() { done <- struct{}{} }()
			if err := div.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("divergence service exited")
			}
		}()
		log.Info().
			Str("reference", cfg.Divergence.Reference).
			Strs("exchanges", subs.ListExchanges()).
			Msg("divergence watcher started")
	}

	if cfg.Volatility.Enabled {
		cache := domain.NewPriceCache(time.Duration(cfg.Volatility.WindowSec) * time.Second)
		subs := service.NewSubscriptionService(service.SubscriptionDeps{
			Adapters:  adapters,
			Reference: cfg.Divergence.Reference,
			Dialer:    dialer,
			Cache:     cache,
			Stats:     stats,
			MaxPairs:  cfg.Volatility.MaxPairs,
			Quote:     cfg.Volatility.Quote,
		})

		vol := service.NewVolatilityService(service.VolatilityDeps{
			Cache:            cache,
			Stats:            stats,
			Sink:             sink,
			Repo:             repo,
			TopK:             cfg.Volatility.TopK,
			Quote:            cfg.Volatility.Quote,
			EmitInterval:     time.Duration(cfg.App.VolatilityIntervalMS) * time.Millisecond,
			SnapshotInterval: time.Duration(cfg.App.SnapshotEverySec) * time.Second,
		})

		running += 2
		go func() {
			defer func() { done <- struct{}{} }()
			refresh := time.Duration(cfg.Volatility.RefreshSec) * time.Second
			if err := subs.RunHotlist(ctx, refresh); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("hotlist loop exited")
			}
		}()
		go func() {
			defer func() { done <- struct{}{} }()
			if err := vol.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("volatility service exited")
			}
		}()
		log.Info().
			Int("top_k", cfg.Volatility.TopK).
			Int("max_pairs", cfg.Volatility.MaxPairs).
			Msg("volatility watcher started")
	}

	<-ctx.Done()
	for i := 0; i < running; i++ {
		<-done
	}
	log.Info().Msg("spreadeye stopped")
}
