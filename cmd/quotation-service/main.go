package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/trust-insurance/quotation/internal/api"
	"github.com/trust-insurance/quotation/internal/catalog"
	"github.com/trust-insurance/quotation/internal/jobs"
	"github.com/trust-insurance/quotation/internal/publisher"
	"github.com/trust-insurance/quotation/internal/quote"
	"github.com/trust-insurance/quotation/internal/rate"
	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/internal/store"
	"github.com/trust-insurance/quotation/pkg/cache"
	"github.com/trust-insurance/quotation/pkg/config"
	"github.com/trust-insurance/quotation/pkg/logger"
	"github.com/trust-insurance/quotation/pkg/secrets"
	"github.com/trust-insurance/quotation/pkg/utils"
)

// productCatalog is what both catalogue sources provide.
type productCatalog interface {
	catalog.Source
	api.Catalog
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infof("starting [%s]...", cfg.ServiceName)

	// --- Database DSN (optionally from AWS Secrets Manager) ---
	dsn := cfg.DatabaseURL
	if cfg.DatabaseSecretID != "" {
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		resolver := secrets.NewDSNResolver(logger.Named("secrets"), awsProvider, cache.New[string](cfg.SecretCacheTTL))
		dsn, err = resolver.Resolve(ctx, cfg.DatabaseSecretID)
		if err != nil {
			logg.Fatalw("failed to resolve database secret", "secret_id", cfg.DatabaseSecretID, "error", err)
		}
	}
	logg.Info("connection to DSN: ", utils.MaskDSN(dsn))

	// --- Store (Redis + Postgres hybrid) ---
	st, err := store.NewHybrid(ctx, store.Options{
		RedisAddr: cfg.RedisAddr,
		RedisDB:   cfg.RedisDB,
		RedisPass: cfg.RedisPass,
		PGURL:     dsn,
		Pool: store.PGPoolConfig{
			MaxConns:          int32(cfg.PGMaxConns),
			MinConns:          int32(cfg.PGMinConns),
			MaxConnLifetime:   cfg.PGMaxConnLifetime,
			MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
			HealthCheckPeriod: cfg.PGHealthCheckPeriod,
		},
		QuoteTTL: cfg.QuoteCacheTTL,
	}, logger.Named("store"))
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	if cfg.MigrateOnStart {
		if err := st.Migrate(ctx); err != nil {
			logg.Fatalw("failed to run migrations", "error", err)
		}
	}

	// --- Product catalogue ---
	var products productCatalog
	if cfg.UseMemoryCatalog() || st.PG == nil {
		if !cfg.UseMemoryCatalog() {
			logg.Warn("no database configured; serving the in-memory catalogue")
		}
		mem, err := catalog.LoadMemory(cfg.CatalogSeedFile)
		if err != nil {
			logg.Fatalw("failed to load catalogue", "file", cfg.CatalogSeedFile, "error", err)
		}
		products = mem
	} else {
		if cfg.CatalogSeedFile != "" {
			f, err := os.Open(cfg.CatalogSeedFile)
			if err != nil {
				logg.Fatalw("failed to open catalogue seed", "file", cfg.CatalogSeedFile, "error", err)
			}
			seed, err := catalog.ParseSeed(f)
			_ = f.Close()
			if err != nil {
				logg.Fatalw("failed to parse catalogue seed", "file", cfg.CatalogSeedFile, "error", err)
			}
			if err := st.SeedCatalog(ctx, seed); err != nil {
				logg.Fatalw("failed to seed catalogue", "error", err)
			}
			logg.Infow("catalogue seeded", "products", len(seed.Products))
		}
		products = st
	}

	rateResolver := catalog.NewResolver(logger.Named("catalog"), products,
		catalog.FallbackRates(cfg.FallbackBaseRate, cfg.FallbackPerYearRate, cfg.FallbackCurrency),
		cfg.CatalogCacheTTL)
	go rateResolver.StartCleaner(cfg.CatalogCacheTTL, ctx.Done())
	dispatcher := rating.NewDefaultDispatcher(logger.Named("rating"), rateResolver, time.Now)
	assembler := quote.NewAssembler(time.Now)

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
	if err != nil {
		logg.Fatalw("failed to connect to NATS", "error", err)
	}

	// --- Publisher ---
	pub, err := publisher.New(nc, cfg.EventsSubject, cfg.ServiceName)
	if err != nil {
		logg.Fatalw("failed to init publisher", "error", err)
	}
	if err := pub.EnsureStream(cfg.EventsStream); err != nil {
		logg.Warnw("failed to ensure events stream", "stream", cfg.EventsStream, "error", err)
	}

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				rateMgr.Prune(10 * time.Minute)
			}
		}
	}()

	// --- Expiry sweeper ---
	sweeper := jobs.NewExpirySweeper(logger.Named("expiry"), st, pub, cfg.QuoteValidity, cfg.ExpirySweepInterval)
	go sweeper.Start(ctx)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	quoteHandler := api.NewQuoteHandler(logger.Named("api"), dispatcher, assembler, st, pub, cfg.QuoteValidity)
	catalogHandler := api.NewCatalogHandler(logger.Named("api"), products)
	api.RegisterRoutes(app, nc, st, quoteHandler, catalogHandler, rateMgr)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	// --- Main process stays alive until interrupted ---
	logg.Infow(fmt.Sprintf("[%s] running", cfg.ServiceName),
		"nats", cfg.NATSURL,
		"env", cfg.Env,
		"catalog", cfg.CatalogSource,
		"lines", dispatcher.Lines())

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	sweeper.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := pub.Close(); err != nil {
		logg.Warnw("nats.drain_failed", "error", err)
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
