package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/arbwatch/internal/aggregate"
	"github.com/alanyoungcy/arbwatch/internal/cache/redis"
	"github.com/alanyoungcy/arbwatch/internal/config"
	"github.com/alanyoungcy/arbwatch/internal/detect"
	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/filter"
	"github.com/alanyoungcy/arbwatch/internal/monitor"
	"github.com/alanyoungcy/arbwatch/internal/notify"
	"github.com/alanyoungcy/arbwatch/internal/score"
	"github.com/alanyoungcy/arbwatch/internal/server"
	"github.com/alanyoungcy/arbwatch/internal/server/handler"
	"github.com/alanyoungcy/arbwatch/internal/venue/binance"
	"github.com/alanyoungcy/arbwatch/internal/venue/coingecko"
	"github.com/alanyoungcy/arbwatch/internal/venue/dexscreener"
)

// Dependencies holds the wired application graph.
type Dependencies struct {
	Monitor *monitor.Monitor
	Server  *server.Server // nil when the HTTP surface is disabled
	Feed    *binance.Feed  // nil when the binance venue is disabled
}

// Wire builds every component from configuration. ctx doubles as the
// application lifetime context for components that outlive a single call
// (the monitor loop started over HTTP). The returned cleanup function
// releases external connections and is safe to call once.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	profiles := cfg.ProfileTable()

	// Optional Redis outputs.
	var (
		bus        domain.SignalBus
		oppCache   domain.OpportunityCache
		quoteCache domain.QuoteCache
	)
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		bus = redis.NewSignalBus(client)
		oppCache = redis.NewOpportunityCache(client)
		quoteCache = redis.NewQuoteCache(client)
		logger.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	}

	// Source adapters.
	var (
		adapters []domain.SourceAdapter
		feed     *binance.Feed
	)
	if cfg.Venues.CoinGecko.Enabled {
		adapters = append(adapters, coingecko.New(cfg.Venues.CoinGecko.BaseURL))
	}
	if cfg.Venues.DexScreener.Enabled {
		adapters = append(adapters, dexscreener.New(dexscreener.Config{
			BaseURL:        cfg.Venues.DexScreener.BaseURL,
			RequestsPerSec: cfg.Venues.DexScreener.RequestsPerSec,
			BatchSize:      cfg.Aggregator.BatchSize,
			BatchDelay:     cfg.Aggregator.BatchDelay.Duration,
		}))
	}
	if cfg.Venues.Binance.Enabled {
		feed = binance.NewFeed(cfg.Venues.Binance.WsURL, cfg.Watchlist, cfg.Venues.Binance.MaxQuoteAge.Duration, logger)
		closers = append(closers, feed.Close)
		adapters = append(adapters, feed)
	}
	if len(adapters) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("app: no venue adapters enabled")
	}

	// Pipeline stages.
	aggregator := aggregate.New(adapters, quoteCache, aggregate.Config{
		AdapterTimeout:   cfg.Aggregator.AdapterTimeout.Duration,
		MinLiquidityUSD:  cfg.Aggregator.MinLiquidityUSD,
		MaxPairsPerAsset: cfg.Aggregator.MaxPairsPerAsset,
	}, logger)

	detector := detect.New(profiles, detect.Config{
		TradeAmountUSD:   cfg.Trade.AmountUSD,
		EstimatedCostUSD: cfg.Cost.EstimatedCostUSD(),
	}, logger)

	scorer := score.New(score.Config{
		StrongProfitPct: cfg.Scoring.StrongProfitPct,
		SolidProfitPct:  cfg.Scoring.SolidProfitPct,
		ThinProfitPct:   cfg.Scoring.ThinProfitPct,
		HighVolumeUSD:   cfg.Scoring.HighVolumeUSD,
		MidVolumeUSD:    cfg.Scoring.MidVolumeUSD,
		ReputableVenues: cfg.Scoring.ReputableVenues,
		HighPoints:      cfg.Scoring.HighPoints,
		MediumPoints:    cfg.Scoring.MediumPoints,
	}, logger)

	validator := filter.New(filter.Config{
		Enabled:           cfg.Filter.Enabled,
		Blacklist:         cfg.Filter.Blacklist,
		PegTolerancePct:   cfg.Filter.PegTolerancePct,
		AcceptScore:       cfg.Filter.AcceptScore,
		CautionScore:      cfg.Filter.CautionScore,
		Reputation:        cfg.Filter.Reputation,
		UnknownReputation: cfg.Filter.UnknownReputation,
	}, profiles, logger)

	// Notifications.
	var notifier *notify.Notifier
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	mon := monitor.New(aggregator, detector, scorer, validator,
		cfg.Watchlist, cfg.Monitor.Interval.Duration,
		monitor.Options{Bus: bus, Cache: oppCache, Notifier: notifier},
		logger)

	// HTTP surface.
	var srv *server.Server
	if cfg.Server.Enabled {
		handlers := server.Handlers{
			Health:  handler.NewHealthHandler(),
			Monitor: handler.NewMonitorHandler(mon, ctx, logger),
		}
		srv = server.NewServer(server.Config{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		}, handlers, logger)
	}

	return &Dependencies{
		Monitor: mon,
		Server:  srv,
		Feed:    feed,
	}, cleanup, nil
}
