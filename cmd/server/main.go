package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/quantdata/internal/api"
	"github.com/kjannette/quantdata/internal/cache"
	"github.com/kjannette/quantdata/internal/config"
	"github.com/kjannette/quantdata/internal/db"
	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/marketdata"
	"github.com/kjannette/quantdata/internal/notifications"
	"github.com/kjannette/quantdata/internal/repository"
	"github.com/kjannette/quantdata/internal/scheduler"
	"github.com/kjannette/quantdata/internal/stocks"
	"github.com/kjannette/quantdata/internal/stream"
)

const banner = `
╔══════════════════════════════════════╗
║      QuantData Market Data API       ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	logger := logging.New(cfg.LogLevel)
	log := logger.Component("main")

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer func() {
		pool.Close()
		log.Info().Msg("Database connection pool closed")
	}()

	if err := db.TestConnection(ctx, pool, logger); err != nil {
		log.Fatal().Err(err).Msg("Database test query failed")
	}
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Schema migration failed")
	}
	if cfg.SeedOnStart {
		if err := db.Seed(ctx, pool, db.ResolveSeedDir(cfg.SeedDataDir), logger); err != nil {
			log.Fatal().Err(err).Msg("Seeding failed")
		}
	}

	// Stock catalog
	catalog := stocks.NewService(
		repository.NewSymbolRepo(pool),
		repository.NewPriceRepo(pool),
		repository.NewIndexDataRepo(pool),
		logger,
	)
	if err := catalog.CheckReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("Stock catalog is not ready")
	}

	// Provider clients
	clientOpts := []external.Option{
		external.WithLogger(logger.Component("external")),
		external.WithTimeout(cfg.ProviderTimeout),
		external.WithAttempts(cfg.ProviderMaxAttempts),
	}
	avOpts := append([]external.Option{external.WithRateLimit(cfg.AlphaVantageRatePerMinute)}, clientOpts...)

	var avServiceOpts []marketdata.AlphaVantageOption
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, AlphaVantage cache disabled")
		} else {
			defer rc.Close()
			avServiceOpts = append(avServiceOpts, marketdata.WithCache(rc, cfg.CacheTTL))
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("AlphaVantage cache enabled")
		}
	}

	alphaVantage := marketdata.NewAlphaVantageService(
		external.NewAlphaVantageClient(cfg.AlphaVantageAPIKey, avOpts...),
		logger.Component("alphavantage"),
		avServiceOpts...,
	)
	iexToken := cfg.IEXPublishableToken
	if iexToken == "" {
		iexToken = cfg.IEXSecretToken
	}
	iex := marketdata.NewIEXService(external.NewIEXClient(iexToken, clientOpts...), logger.Component("iex"))
	yahoo := marketdata.NewYahooService(external.NewYahooClient(clientOpts...), logger.Component("yahoo"))
	quandl := marketdata.NewQuandlService(external.NewQuandlClient(cfg.QuandlAPIKey, clientOpts...), logger.Component("quandl"))
	isda := marketdata.NewIsdaService(external.NewIsdaClient(clientOpts...), logger.Component("isda"))

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.ServiceName, logger)

	// Stream hub
	hub := stream.NewHub(yahoo, logger)

	// 1. API server
	srv := api.NewServer(api.Deps{
		DB:           pool,
		Stocks:       catalog,
		AlphaVantage: alphaVantage,
		IEX:          iex,
		Yahoo:        yahoo,
		Quandl:       quandl,
		Isda:         isda,
		Hub:          http.HandlerFunc(hub.ServeWS),
	}, api.Options{
		Port:            cfg.APIPort,
		APIKey:          cfg.APIKey,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Logger:          logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	// 2. Price sync
	var priceSync *scheduler.PriceSync
	if cfg.PriceSyncEnabled {
		priceSync, err = scheduler.NewPriceSync(alphaVantage, catalog, notify, scheduler.PriceSyncConfig{
			Spec: cfg.PriceSyncCron,
		}, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Price sync setup failed")
		}
		priceSync.Start()
	} else {
		log.Info().Msg("Price sync disabled")
	}

	log.Info().Msg("All services started successfully")
	notify.Send(ctx, fmt.Sprintf("%s started on port %d", cfg.ServiceName, cfg.APIPort))

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")

	if priceSync != nil {
		priceSync.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	log.Info().Msg("Shutdown complete")
}
