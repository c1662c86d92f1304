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

	"github.com/moritea/storefront/api/routes"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/catalog"
	"github.com/moritea/storefront/internal/checkout"
	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/pkg/config"
	"github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/instance"
	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/metrics"
	"github.com/moritea/storefront/pkg/migrate"
	"github.com/moritea/storefront/pkg/outbox"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	var closers closerStack
	defer func() {
		if err := closers.Close(); err != nil {
			logg.Error(context.Background(), "error releasing resources", err)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers.push("database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	backend, redisPinger, err := buildCartBackend(ctx, cfg, logg, dbClient, &closers)
	if err != nil {
		return err
	}
	store := cart.NewStore(backend, cfg.Cart.SlotName, logg, cartMetrics)
	sessions := cart.NewRegistry(store, cart.RegistryOptions{
		IdleTTL:       cfg.Cart.IdleTTL,
		SweepInterval: cfg.Cart.SweepInterval,
		Logger:        logg,
		Metrics:       cartMetrics,
	})
	go sessions.Run(ctx)

	products := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(products, catalog.NewImageResolver(cfg.Catalog.FileBaseURL))
	if err != nil {
		return err
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		return err
	}
	publisher, err := buildPublisher(ctx, cfg, logg, &closers)
	if err != nil {
		return err
	}
	provider, err := buildPaymentProvider(ctx, cfg, logg)
	if err != nil {
		return err
	}

	currency, err := enums.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		return err
	}
	checkoutDeps := checkout.Deps{
		Tx:        dbClient,
		Catalog:   catalogService,
		Stock:     products,
		Orders:    orderRepo,
		Payments:  provider,
		Publisher: publisher,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	}
	if cfg.Outbox.Enabled {
		// Events commit with the order and cmd/outbox-publisher relays them.
		checkoutDeps.Outbox = orders.NewOutboxQueue(outbox.NewService(outbox.NewRepository(dbClient.DB()), logg))
	}
	checkoutService, err := checkout.NewService(checkout.Pricing{
		Currency:         currency,
		FreeShippingOver: cfg.Checkout.FreeShippingOver,
		ShippingFee:      cfg.Checkout.ShippingFee,
	}, cfg.Checkout.DefaultCountry, checkoutDeps)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"instance":     instance.ID(),
		"addr":         addr,
		"cart_backend": backend.Name(),
		"payments":     provider.Name(),
		"currency":     currency,
		"outbox":       cfg.Outbox.Enabled,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:       dbClient,
			Redis:    redisPinger,
			Sessions: sessions,
			Catalog:  catalogService,
			Checkout: checkoutService,
			Orders:   orderService,
			Gatherer: reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
