package cart

import "testing"

func TestTotalAmountPrefersValidDiscount(t *testing.T) {
	p := tea("t1", "55")
	p.DiscountPrice = decPtr("20")
	items := []LineItem{{Product: p, Quantity: 2}}

	if got := TotalAmount(items); !got.Equal(dec("40")) {
		t.Fatalf("TotalAmount = %s, want 40", got)
	}
}

func TestEffectivePriceIgnoresInvalidDiscount(t *testing.T) {
	cases := map[string]*string{
		"zero discount":     strPtr("0"),
		"negative discount": strPtr("-3"),
		"equal to base":     strPtr("30"),
		"above base":        strPtr("31"),
		"no discount":       nil,
	}
	for name, raw := range cases {
		p := tea("t1", "30")
		if raw != nil {
			p.DiscountPrice = decPtr(*raw)
		}
		if got := EffectivePrice(LineItem{Product: p, Quantity: 1}); !got.Equal(dec("30")) {
			t.Fatalf("%s: effective price %s, want 30", name, got)
		}
	}
}

func TestTotalItemCountSumsQuantities(t *testing.T) {
	items := []LineItem{
		{Product: tea("a", "1"), Quantity: 3},
		{Product: tea("b", "1"), Quantity: 2},
	}
	if got := TotalItemCount(items); got != 5 {
		t.Fatalf("TotalItemCount = %d, want 5", got)
	}
}

func TestTotalAmountIsExact(t *testing.T) {
	items := []LineItem{
		{Product: tea("a", "0.10"), Quantity: 3},
		{Product: tea("b", "0.20"), Quantity: 1},
	}
	if got := TotalAmount(items); !got.Equal(dec("0.5")) {
		t.Fatalf("TotalAmount = %s, want 0.5", got)
	}
	if got := TotalAmount(nil); !got.IsZero() {
		t.Fatalf("empty cart should total zero, got %s", got)
	}
}

func TestSummarize(t *testing.T) {
	items := []LineItem{{Product: tea("a", "12.5"), Quantity: 2}}
	s := Summarize(items)
	if s.TotalItems != 2 || !s.TotalAmount.Equal(dec("25")) || len(s.Items) != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func strPtr(v string) *string {
	return &v
}
