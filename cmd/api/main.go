package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/homeplast-storefront/api/controllers"
	"github.com/angelmondragon/homeplast-storefront/api/routes"
	"github.com/angelmondragon/homeplast-storefront/internal/appstate"
	"github.com/angelmondragon/homeplast-storefront/internal/backend"
	"github.com/angelmondragon/homeplast-storefront/internal/cartsync"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/internal/checkout"
	"github.com/angelmondragon/homeplast-storefront/internal/coupon"
	"github.com/angelmondragon/homeplast-storefront/internal/orders"
	"github.com/angelmondragon/homeplast-storefront/internal/pricing"
	"github.com/angelmondragon/homeplast-storefront/internal/shopping"
	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	"github.com/angelmondragon/homeplast-storefront/pkg/db"
	"github.com/angelmondragon/homeplast-storefront/pkg/env"
	"github.com/angelmondragon/homeplast-storefront/pkg/instance"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/metrics"
	"github.com/angelmondragon/homeplast-storefront/pkg/migrate"
	"github.com/angelmondragon/homeplast-storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Env:         cfg.App.Env,
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	readiness := map[string]controllers.Pinger{"redis": redisClient}

	var stateStore appstate.Store
	if cfg.State.UsesSQL() {
		dbClient, dbErr := db.New(ctx, cfg.DB, logg)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			err = multierr.Append(err, dbClient.Close())
		}()
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		sqlStore, storeErr := appstate.NewSQLStore(dbClient.DB())
		if storeErr != nil {
			return storeErr
		}
		stateStore = sqlStore
		readiness["db"] = dbClient
	} else {
		redisStore, storeErr := appstate.NewRedisStore(redisClient, cfg.State.TTL)
		if storeErr != nil {
			return storeErr
		}
		stateStore = redisStore
	}

	states, err := appstate.NewManager(stateStore, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backendParams := backend.ParamsFromConfig(cfg.Backend)
	backendParams.Metrics = metrics.NewBackendMetrics(registry)
	backendParams.Logger = logg
	backendClient, err := backend.New(backendParams)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Source:      backendClient,
		Logger:      logg,
		TTL:         cfg.Catalog.TTL,
		LoadTimeout: cfg.Catalog.LoadTimeout,
	})
	if err != nil {
		return err
	}

	dispatcher, err := cartsync.NewDispatcher(cartsync.DispatcherParams{
		Gateway:        backendClient,
		Logger:         logg,
		Metrics:        metrics.NewSyncMetrics(registry),
		Workers:        cfg.Sync.Workers,
		QueueSize:      cfg.Sync.QueueSize,
		DebounceWindow: cfg.Sync.DebounceWindow,
		CallTimeout:    cfg.Backend.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, dispatcher.Close(flushCtx))
	}()

	evaluator := pricing.NewEvaluator(cfg.Pricing)

	cartService, err := shopping.NewCartService(shopping.CartServiceParams{
		States:   states,
		Products: catalogService,
		Pricing:  evaluator,
		Sync:     dispatcher,
		Source:   backendClient,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	wishlistService, err := shopping.NewWishlistService(shopping.WishlistServiceParams{
		States:   states,
		Products: catalogService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	couponService, err := coupon.NewService(coupon.ServiceParams{
		Gateway:  backendClient,
		Logger:   logg,
		Precheck: cfg.Coupon.Precheck,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		States:   states,
		Pricing:  evaluator,
		Coupons:  couponService,
		Products: catalogService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		States:  states,
		Quoter:  checkoutService,
		Gateway: backendClient,
		Sync:    dispatcher,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	runCtx := logg.WithFields(ctx, map[string]any{
		"addr":         addr,
		"state_driver": cfg.State.Driver,
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			metrics.NewHTTPMetrics(registry),
			readiness,
			redisClient,
			catalogService,
			cartService,
			wishlistService,
			checkoutService,
			ordersService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting storefront server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(runCtx, "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
