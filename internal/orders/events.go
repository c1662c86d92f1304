package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/pkg/db/models"
)

// EventOrderPlaced is emitted once per successfully placed order.
const EventOrderPlaced = "order.placed"

// PlacedEvent is the payload of EventOrderPlaced.
type PlacedEvent struct {
	EventID         string          `json:"event_id"`
	EventType       string          `json:"event_type"`
	OccurredAt      time.Time       `json:"occurred_at"`
	OrderID         uuid.UUID       `json:"order_id"`
	UserID          *string         `json:"user_id,omitempty"`
	Email           string          `json:"email"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Currency        string          `json:"currency"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Total           decimal.Decimal `json:"total"`
	Items           []PlacedItem    `json:"items"`
}

type PlacedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewPlacedEvent builds the event for order at now.
func NewPlacedEvent(order *models.Order, now time.Time) PlacedEvent {
	items := make([]PlacedItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, PlacedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return PlacedEvent{
		EventID:         uuid.NewString(),
		EventType:       EventOrderPlaced,
		OccurredAt:      now.UTC(),
		OrderID:         order.ID,
		UserID:          order.UserID,
		Email:           order.ShippingAddress.Email,
		PaymentIntentID: order.PaymentIntentID,
		Currency:        order.Currency.String(),
		Subtotal:        order.SubtotalPrice,
		Shipping:        order.ShippingPrice,
		Total:           order.TotalPrice,
		Items:           items,
	}
}
