package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/catalog/store"
	"github.com/angelmondragon/storefront-backend/internal/catalogsync"
	"github.com/angelmondragon/storefront-backend/internal/scheduler"
	"github.com/angelmondragon/storefront-backend/internal/shopify"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const serviceName = "catalog-sync"

func main() {
	once := flag.Bool("once", false, "run a single sync and exit")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address (disabled when empty)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	catalogMetrics := metrics.NewCatalogMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	dbClient, err := db.New(context.Background(), cfg.DB, logg, db.WithRetryObserver(db.LoggingObserver(logg, catalogMetrics.IncBusyRetry)))
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		lock        scheduler.Lock = &scheduler.LocalLock{}
		cache       *catalog.FacetCache
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := scheduler.NewRedisLock(redisClient, cfg.Sync.LockKey, cfg.Sync.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create sync lock", err)
			os.Exit(1)
		}
		lock = redisLock
		cache = catalog.NewFacetCache(redisClient, cfg.Catalog.FacetCacheTTL)
	} else {
		logg.Warn(context.Background(), "redis not configured; using an in-process sync lock")
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify.StorefrontURL, cfg.Shopify.AccessToken, shopify.WithTimeout(cfg.Shopify.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	updater, err := catalogsync.NewUpdater(catalogsync.Params{
		Source: shopify.NewSource(shopifyClient, logg, cfg.Shopify.PageSize),
		Writer: store.NewWriter(dbClient, logg, catalogMetrics),
		Cache:  cache,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog updater", err)
		os.Exit(1)
	}

	service, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:   logg,
		Registry: scheduler.NewRegistry(updater),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Sync.Interval.String(),
		"once":     *once,
	})

	if *metricsAddr != "" {
		go serveMetrics(ctx, logg, *metricsAddr)
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "catalog sync failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "catalog sync finished")
		return
	}

	logg.Info(ctx, "starting catalog sync worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "catalog sync worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "catalog sync worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
