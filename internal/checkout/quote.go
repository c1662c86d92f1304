package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced breakdown of a cart.
type Quote struct {
	Items        []QuoteLine     `json:"items"`
	TotalItems   int             `json:"total_items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Total        decimal.Decimal `json:"total"`
	FreeShipping bool            `json:"free_shipping"`
	Currency     enums.Currency  `json:"currency"`
}

type QuoteLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Pricing holds the shipping rule and currency of the store.
type Pricing struct {
	Currency         enums.Currency
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal
}

// Quote prices items. Shipping is free when the subtotal is strictly above
// the threshold.
func (p Pricing) Quote(items []cart.LineItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	summary := cart.Summarize(items)

	lines := make([]QuoteLine, 0, len(summary.Items))
	for _, item := range summary.Items {
		lines = append(lines, QuoteLine{
			ProductID: item.Key(),
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: cart.EffectivePrice(item),
			LineTotal: item.LineTotal(),
		})
	}

	q := Quote{
		Items:      lines,
		TotalItems: summary.TotalItems,
		Subtotal:   summary.TotalAmount,
		Shipping:   p.ShippingFee,
		Currency:   p.Currency,
	}
	if summary.TotalAmount.GreaterThan(p.FreeShippingOver) {
		q.Shipping = decimal.Zero
		q.FreeShipping = true
	}
	q.Total = q.Subtotal.Add(q.Shipping)
	return q, nil
}

// MinorUnits converts a major-unit amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
