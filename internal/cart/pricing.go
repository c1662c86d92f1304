package cart

import "github.com/shopspring/decimal"

// Summary bundles the derived figures displayed next to a cart.
type Summary struct {
	Items       []LineItem
	TotalItems  int
	TotalAmount decimal.Decimal
}

// EffectivePrice returns the discounted unit price when valid, else the base price.
func EffectivePrice(item LineItem) decimal.Decimal {
	return item.Product.EffectivePrice()
}

// LineTotal is the effective price times quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return EffectivePrice(i).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalItemCount sums quantities across line items.
func TotalItemCount(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalAmount sums line totals exactly; rounding is left to the caller.
func TotalAmount(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Summarize computes the count and amount for items.
func Summarize(items []LineItem) Summary {
	return Summary{
		Items:       items,
		TotalItems:  TotalItemCount(items),
		TotalAmount: TotalAmount(items),
	}
}
