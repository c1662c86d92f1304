package catalog

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/db/models"
)

const productsDDL = `
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
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(productsDDL).Error)
	return conn
}

type productOpt func(*models.Product)

func withStock(n int) productOpt {
	return func(p *models.Product) { p.Stock = &n }
}

func withSale(v string) productOpt {
	return func(p *models.Product) {
		d := decimal.RequireFromString(v)
		p.SalePrice = &d
	}
}

func withOrder(n int) productOpt {
	return func(p *models.Product) { p.DisplayOrder = n }
}

func featured() productOpt {
	return func(p *models.Product) { p.IsFeatured = true }
}

func seedProduct(t *testing.T, conn *gorm.DB, name, price string, opts ...productOpt) models.Product {
	t.Helper()
	p := models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Images:    pq.StringArray{name + ".jpg"},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func deactivate(t *testing.T, conn *gorm.DB, p models.Product) {
	t.Helper()
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)
}
