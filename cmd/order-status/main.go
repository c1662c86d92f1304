package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/pkg/config"
	"github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/logger"
)

type statusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "order-status"})

	_ = godotenv.Load()

	orderID := flag.String("order", "", "order id (uuid)")
	status := flag.String("status", "", "target status: processing|shipped|delivered|cancelled")
	flag.Parse()

	id, target, err := parseArgs(*orderID, *status)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadMigrate()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "order-status",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	svc, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "orders service", err)

	if err := run(ctx, logg, svc, id, target); err != nil {
		fmt.Fprintf(os.Stderr, "status update failed: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(orderID, status string) (uuid.UUID, enums.OrderStatus, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid -order %q: %w", orderID, err)
	}
	target, err := enums.ParseOrderStatus(status)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, target, nil
}

func run(ctx context.Context, logg *logger.Logger, svc statusUpdater, id uuid.UUID, status enums.OrderStatus) error {
	ctx = logg.WithFields(logg.WithOrderID(ctx, id.String()), map[string]any{"status": status})
	if err := svc.UpdateStatus(ctx, id, status); err != nil {
		logg.Error(ctx, "order status not updated", err)
		return err
	}
	logg.Info(ctx, "order status updated")
	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
