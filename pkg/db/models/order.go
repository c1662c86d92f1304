package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/types"
)

// Order is a placed storefront order. UserID is nil for guest checkouts.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *string               `gorm:"column:user_id"`
	GuestEmail      *string               `gorm:"column:guest_email"`
	GuestName       *string               `gorm:"column:guest_name"`
	GuestPhone      *string               `gorm:"column:guest_phone"`
	SubtotalPrice   decimal.Decimal       `gorm:"column:subtotal_price;type:numeric(10,2);not null"`
	ShippingPrice   decimal.Decimal       `gorm:"column:shipping_price;type:numeric(10,2);not null"`
	TotalPrice      decimal.Decimal       `gorm:"column:total_price;type:numeric(10,2);not null"`
	Currency        enums.Currency        `gorm:"column:currency;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	PaymentIntentID string                `gorm:"column:payment_intent_id;not null;uniqueIndex"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
