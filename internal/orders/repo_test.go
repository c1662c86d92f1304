package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/pagination"
	"github.com/moritea/storefront/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
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
);`
	items := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func newTestOrder(paymentIntentID string, userID *string, createdAt time.Time) *models.Order {
	return &models.Order{
		UserID:          userID,
		SubtotalPrice:   decimal.RequireFromString("18.00"),
		ShippingPrice:   decimal.RequireFromString("5.00"),
		TotalPrice:      decimal.RequireFromString("23.00"),
		Currency:        enums.CurrencyEUR,
		Status:          enums.OrderStatusPaid,
		PaymentIntentID: paymentIntentID,
		ShippingAddress: types.ShippingAddress{
			FirstName: "Leyla",
			LastName:  "Aliyeva",
			Email:     "leyla@example.com",
			Country:   "Azerbaijan",
		},
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Sencha", Quantity: 2, UnitPrice: decimal.RequireFromString("4.50"), TotalPrice: decimal.RequireFromString("9.00")},
			{ProductID: uuid.New(), Name: "Matcha", Quantity: 1, UnitPrice: decimal.RequireFromString("9.00"), TotalPrice: decimal.RequireFromString("9.00")},
		},
		CreatedAt: createdAt,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))

	order := newTestOrder("pi_1", nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, got.Status)
	assert.Equal(t, "leyla@example.com", got.ShippingAddress.Email)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(23)))
	require.Len(t, got.Items, 2)
	for _, item := range got.Items {
		assert.Equal(t, order.ID, item.OrderID)
	}

	byIntent, err := repo.FindByPaymentIntent(ctx, " pi_1 ")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byIntent.ID)

	_, err = repo.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryCreateRejectsDuplicateIntent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))

	require.NoError(t, repo.Create(ctx, newTestOrder("pi_dup", nil, time.Now().UTC())))
	assert.Error(t, repo.Create(ctx, newTestOrder("pi_dup", nil, time.Now().UTC())))
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, newTestOrder("pi_tx", nil, time.Now().UTC())); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = repo.FindByPaymentIntent(ctx, "pi_tx")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	user := "user-1"
	other := "user-2"
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, pi := range []string{"pi_a", "pi_b", "pi_c"} {
		require.NoError(t, repo.Create(ctx, newTestOrder(pi, &user, base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Create(ctx, newTestOrder("pi_other", &other, base)))

	first, err := repo.ListByUser(ctx, user, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "pi_c", first.Items[0].PaymentIntentID)
	assert.Equal(t, "pi_b", first.Items[1].PaymentIntentID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByUser(ctx, user, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "pi_a", second.Items[0].PaymentIntentID)
	assert.Empty(t, second.NextCursor)

	_, err = repo.ListByUser(ctx, user, pagination.Params{Cursor: "%%%"})
	assert.Error(t, err)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	order := newTestOrder("pi_s", nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped))
	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)

	assert.Error(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatus("lost")))
	assert.True(t, errors.Is(repo.UpdateStatus(ctx, uuid.New(), enums.OrderStatusPaid), gorm.ErrRecordNotFound))
}
