package cart

import "github.com/shopspring/decimal"

// Product is the snapshot of a catalog item captured when it entered the
// cart. Stock nil means unconstrained.
type Product struct {
	Key           string
	Name          string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         *int
	Images        []string
}

// HasDiscount reports whether the discount price is usable: strictly positive
// and strictly below the base price.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice != nil &&
		p.DiscountPrice.IsPositive() &&
		p.DiscountPrice.LessThan(p.Price)
}

// EffectivePrice is the unit price actually charged.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return *p.DiscountPrice
	}
	return p.Price
}

// StockCeiling returns the known stock and whether one applies.
func (p Product) StockCeiling() (int, bool) {
	if p.Stock == nil {
		return 0, false
	}
	return *p.Stock, true
}

// normalized returns an independent copy with an invalid discount dropped and
// negative stock clamped to zero.
func (p Product) normalized() Product {
	out := p
	if p.HasDiscount() {
		d := *p.DiscountPrice
		out.DiscountPrice = &d
	} else {
		out.DiscountPrice = nil
	}
	if p.Stock != nil {
		s := *p.Stock
		if s < 0 {
			s = 0
		}
		out.Stock = &s
	}
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	return out
}

// LineItem is one product snapshot plus a quantity of at least one.
type LineItem struct {
	Product  Product
	Quantity int
}

// Key returns the product key identifying the line.
func (i LineItem) Key() string {
	return i.Product.Key
}
