package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/catalog"
	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/internal/payments"
	"github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/metrics"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  sale_price NUMERIC,
  stock INTEGER,
  weight TEXT,
  images TEXT,
  image TEXT,
  hover_image TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  is_featured BOOLEAN NOT NULL DEFAULT 0,
  display_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_email TEXT,
  guest_name TEXT,
  guest_phone TEXT,
  subtotal_price NUMERIC NOT NULL,
  shipping_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_intent_id TEXT NOT NULL UNIQUE,
  shipping_address TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  UNIQUE (event_type, aggregate_type, aggregate_id)
);`}

type recordingPublisher struct {
	mu     sync.Mutex
	placed []*models.Order
	err    error
}

func (p *recordingPublisher) PublishPlaced(_ context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, order)
	return p.err
}

type stubProvider struct {
	intent  payments.Intent
	created []payments.IntentRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	p.created = append(p.created, req)
	out := p.intent
	out.Amount = req.Amount
	out.Currency = req.Currency
	return &out, nil
}

func (p *stubProvider) GetIntent(context.Context, string) (*payments.Intent, error) {
	out := p.intent
	return &out, nil
}

type failingStock struct{}

func (failingStock) DecrementStock(context.Context, *gorm.DB, uuid.UUID, int) (int, error) {
	return 0, gorm.ErrInvalidTransaction
}

type fixture struct {
	conn      *gorm.DB
	catalog   *catalog.Service
	products  *catalog.Repository
	orders    orders.Repository
	provider  payments.Provider
	publisher *recordingPublisher
	svc       *Service
}

type fixtureOpt func(*Deps)

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range schema {
		require.NoError(t, conn.Exec(ddl).Error)
	}

	products := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(products, catalog.NewImageResolver(""))
	require.NoError(t, err)

	f := &fixture{
		conn:      conn,
		catalog:   catalogSvc,
		products:  products,
		orders:    orders.NewRepository(conn),
		provider:  payments.NewMockProvider(),
		publisher: &recordingPublisher{},
	}
	deps := Deps{
		Tx:        db.FromGorm(conn),
		Catalog:   catalogSvc,
		Stock:     products,
		Orders:    f.orders,
		Payments:  f.provider,
		Publisher: f.publisher,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.provider = deps.Payments

	f.svc, err = NewService(testPricing(), "Azerbaijan", deps)
	require.NoError(t, err)
	return f
}

func withProvider(p payments.Provider) fixtureOpt {
	return func(d *Deps) { d.Payments = p }
}

func withOutbox(q outboxQueue) fixtureOpt {
	return func(d *Deps) { d.Outbox = q }
}

type failingQueue struct{}

func (failingQueue) QueuePlaced(context.Context, *gorm.DB, *models.Order) error {
	return gorm.ErrInvalidData
}

func withMetrics(m *metrics.CheckoutMetrics) fixtureOpt {
	return func(d *Deps) { d.Metrics = m }
}

func withStockWriter(s stockWriter) fixtureOpt {
	return func(d *Deps) { d.Stock = s }
}

func testPricing() Pricing {
	return Pricing{
		Currency:         enums.CurrencyEUR,
		FreeShippingOver: decimal.NewFromInt(50),
		ShippingFee:      decimal.NewFromInt(5),
	}
}

func (f *fixture) seed(t *testing.T, name, price string, stock *int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, IsActive: true}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f *fixture) sessionWith(t *testing.T, products ...models.Product) *cart.Session {
	t.Helper()
	ctx := context.Background()
	s := cart.NewSession(ctx, uuid.NewString(), nil, nil, nil)
	for _, p := range products {
		snap, err := f.catalog.Snapshot(ctx, p.ID.String())
		require.NoError(t, err)
		require.True(t, s.AddProduct(ctx, snap).IsAllowed())
	}
	return s
}

func validShipping() ShippingInfo {
	return ShippingInfo{
		FirstName:  "Nigar",
		LastName:   "Huseynova",
		Email:      " Nigar@Example.com ",
		Phone:      "+994501234567",
		Address:    "28 May St 12",
		City:       "Baku",
		PostalCode: "AZ1000",
	}
}

func intPtr(v int) *int { return &v }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }
