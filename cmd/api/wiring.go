package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/moritea/storefront/api/controllers"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/internal/payments"
	"github.com/moritea/storefront/pkg/config"
	"github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/pubsub"
	"github.com/moritea/storefront/pkg/redis"
	"github.com/moritea/storefront/pkg/stripe"
)

type closer struct {
	name string
	fn   func() error
}

// closerStack releases resources in reverse order of acquisition.
type closerStack []closer

func (s *closerStack) push(name string, fn func() error) {
	*s = append(*s, closer{name: name, fn: fn})
}

func (s closerStack) Close() error {
	var errs error
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i].fn(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("closing %s: %w", s[i].name, err))
		}
	}
	return errs
}

// buildCartBackend selects the slot backend. The returned pinger is non-nil
// only when redis is in use.
func buildCartBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, closers *closerStack) (cart.Backend, controllers.Pinger, error) {
	switch cfg.Cart.BackendKind() {
	case config.CartBackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, err
		}
		closers.push("redis", client.Close)
		return cart.NewRedisBackend(client, cfg.Cart.SlotTTL), client, nil
	case config.CartBackendDB:
		return cart.NewDBBackend(dbClient.DB()), nil, nil
	case config.CartBackendMemory:
		logg.Warn(ctx, "memory cart backend selected, carts do not survive restarts")
		return cart.NewMemoryBackend(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
}

// buildPublisher publishes order events to Pub/Sub when a project is
// configured, and only logs them otherwise.
func buildPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger, closers *closerStack) (orders.Publisher, error) {
	if cfg.GCP.ProjectID == "" {
		logg.Warn(ctx, "gcp project not configured, order events are logged only")
		return orders.NewLogPublisher(logg), nil
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, err
	}
	closers.push("pubsub", client.Close)

	topic := client.OrdersPublisher()
	publisher, err := orders.NewPubSubPublisher(topic, logg)
	if err != nil {
		return nil, err
	}
	closers.push("orders publisher", func() error {
		topic.Stop()
		return nil
	})
	return publisher, nil
}

func buildPaymentProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Provider, error) {
	switch cfg.Payments.ProviderKind() {
	case config.PaymentsProviderStripe:
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		return payments.NewStripeProvider(client)
	case config.PaymentsProviderMock:
		if cfg.App.IsProd() {
			return nil, fmt.Errorf("%s=%s is not allowed in prod", config.EnvPaymentsProvider, config.PaymentsProviderMock)
		}
		logg.Warn(ctx, "mock payment provider selected")
		return payments.NewMockProvider(), nil
	}
	return nil, fmt.Errorf("%s must be %s or %s, got %q", config.EnvPaymentsProvider, config.PaymentsProviderStripe, config.PaymentsProviderMock, cfg.Payments.Provider)
}
