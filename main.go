package main

import (
	"context"
	"os"

	"sjsage522/skinpricer/config"
	"sjsage522/skinpricer/internal"
	"sjsage522/skinpricer/internal/fetch"
	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/internal/resolver"
	"sjsage522/skinpricer/logger"
	"sjsage522/skinpricer/services/cache"
	"sjsage522/skinpricer/services/publisher"
	"sjsage522/skinpricer/services/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initializeServices builds the fetcher and every enabled backend.
// Publisher and store are only opened when withSinks is set; a backend that
// cannot be reached is logged and left disabled.
func initializeServices(ctx context.Context, cfg *config.Config, withSinks bool) (*internal.Dependencies, error) {
	log := logger.Default
	deps := &internal.Dependencies{}

	fetcher, err := fetch.New(fetch.Options{
		Mode:              fetch.Mode(cfg.FetchMode),
		BrowserBin:        cfg.BrowserBin,
		Headless:          cfg.BrowserHeadless,
		Sessions:          cfg.BrowserSessions,
		SettleDelay:       cfg.SettleDelay,
		NavigationTimeout: cfg.NavigationTimeout,
	})
	if err != nil {
		return nil, err
	}
	deps.Fetcher = fetcher

	if cfg.MemcacheAddr != "" {
		deps.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Dur("ttl", cfg.QuoteTTL).Msg("Quote cache enabled")
	}

	if !withSinks {
		return deps, nil
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable; publishing disabled")
			_ = redisPublisher.Close()
		} else {
			deps.Publisher = redisPublisher
			log.Info().
				Str("addr", cfg.RedisAddr).
				Int("db", cfg.RedisDB).
				Str("stream", cfg.RedisStream).
				Msg("Connected to Redis")
		}
	}

	if cfg.DatabaseURL != "" {
		pg, err := store.Connect(ctx, cfg.DatabaseURL, cfg.Workers)
		if err != nil {
			log.Warn().Err(err).Msg("Database unavailable; quote history disabled")
		} else {
			deps.Store = pg
			log.Info().Msg("Quote history enabled")
		}
	}

	return deps, nil
}

// newResolver wires a resolver over deps
func newResolver(cfg *config.Config, deps *internal.Dependencies) (*resolver.Resolver, error) {
	selectors, err := pricing.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, err
	}

	opts := resolver.Options{
		BaseURL:   cfg.MarketBaseURL,
		Selectors: selectors,
		Debug:     cfg.Debug,
	}
	if deps.Cache != nil {
		opts.Cache = cache.NewQuoteCache(deps.Cache, cfg.QuoteTTL)
	}
	return resolver.New(deps.Fetcher, opts), nil
}
