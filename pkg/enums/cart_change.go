package enums

import "fmt"

// CartChange names the ledger mutation that produced a change notification.
type CartChange string

const (
	CartChangeAdded       CartChange = "added"
	CartChangeRemoved     CartChange = "removed"
	CartChangeQuantitySet CartChange = "quantity_set"
	CartChangeCleared     CartChange = "cleared"
	CartChangeRefreshed   CartChange = "refreshed"
	CartChangeHydrated    CartChange = "hydrated"
)

var validCartChanges = []CartChange{
	CartChangeAdded,
	CartChangeRemoved,
	CartChangeQuantitySet,
	CartChangeCleared,
	CartChangeRefreshed,
	CartChangeHydrated,
}

// String implements fmt.Stringer.
func (c CartChange) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartChange.
func (c CartChange) IsValid() bool {
	for _, candidate := range validCartChanges {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartChange converts raw input into a CartChange.
func ParseCartChange(value string) (CartChange, error) {
	for _, candidate := range validCartChanges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart change %q", value)
}
