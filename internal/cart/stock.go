package cart

import "github.com/moritea/storefront/pkg/enums"

// CanAdd decides whether one more unit of product may join a cart already
// holding current units.
func CanAdd(product Product, current int) enums.StockDecision {
	ceiling, ok := product.StockCeiling()
	switch {
	case !ok:
		return enums.StockAllowed
	case ceiling <= 0:
		return enums.StockOutOfStock
	case current >= ceiling:
		return enums.StockLimitReached
	default:
		return enums.StockAllowed
	}
}

// CanSetQuantity decides whether a line may be set to requested units.
// Non-positive requests are removals and always allowed.
func CanSetQuantity(product Product, requested int) enums.StockDecision {
	if requested <= 0 {
		return enums.StockAllowed
	}
	return CanAdd(product, requested-1)
}
