package enums

import "fmt"

// StockDecision is the outcome of checking a quantity against a stock ceiling.
type StockDecision string

const (
	StockAllowed      StockDecision = "allowed"
	StockOutOfStock   StockDecision = "out_of_stock"
	StockLimitReached StockDecision = "limit_reached"
)

var validStockDecisions = []StockDecision{
	StockAllowed,
	StockOutOfStock,
	StockLimitReached,
}

var stockDecisionMessages = map[StockDecision]string{
	StockAllowed:      "added to cart",
	StockOutOfStock:   "product is out of stock",
	StockLimitReached: "no more stock available for this product",
}

// String implements fmt.Stringer.
func (s StockDecision) String() string {
	return string(s)
}

// IsAllowed reports whether the change may reach the ledger.
func (s StockDecision) IsAllowed() bool {
	return s == StockAllowed
}

// Message returns the user-facing wording for the decision.
func (s StockDecision) Message() string {
	if msg, ok := stockDecisionMessages[s]; ok {
		return msg
	}
	return ""
}

// IsValid reports whether the value is a known StockDecision.
func (s StockDecision) IsValid() bool {
	for _, candidate := range validStockDecisions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockDecision converts raw input into a StockDecision.
func ParseStockDecision(value string) (StockDecision, error) {
	for _, candidate := range validStockDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock decision %q", value)
}
