package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Image columns come in two generations: the
// images array and the single legacy image column.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Description  *string          `gorm:"column:description"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice    *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Stock        *int             `gorm:"column:stock"`
	Weight       *string          `gorm:"column:weight"`
	Images       pq.StringArray   `gorm:"column:images;type:text[]"`
	Image        *string          `gorm:"column:image"`
	HoverImage   *string          `gorm:"column:hover_image"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	IsFeatured   bool             `gorm:"column:is_featured;not null;default:false"`
	DisplayOrder int              `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// BeforeCreate assigns an id when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
