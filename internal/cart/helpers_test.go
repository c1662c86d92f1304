package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func tea(key, price string) Product {
	return Product{Key: key, Name: "Tea " + key, Price: dec(price)}
}

func mustLoad(t *testing.T, store *Store, sessionID string) []LineItem {
	t.Helper()
	items, err := store.Load(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("load %s: %v", sessionID, err)
	}
	return items
}
