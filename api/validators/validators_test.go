package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/moritea/storefront/pkg/errors"
)

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	var ok quantityRequest
	r := httptest.NewRequest("PUT", "/", strings.NewReader(`{"quantity":3}`))
	if err := DecodeJSONBody(r, &ok); err != nil || *ok.Quantity != 3 {
		t.Fatalf("decode failed: %v", err)
	}

	var missing quantityRequest
	r = httptest.NewRequest("PUT", "/", strings.NewReader(`{}`))
	err := DecodeJSONBody(r, &missing)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if details := typed.Details().(map[string]string); details["quantity"] != "is required" {
		t.Fatalf("details should use json field names, got %v", details)
	}

	var negative quantityRequest
	r = httptest.NewRequest("PUT", "/", strings.NewReader(`{"quantity":-1}`))
	if err := DecodeJSONBody(r, &negative); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}

	var unknown quantityRequest
	r = httptest.NewRequest("PUT", "/", strings.NewReader(`{"quantity":1,"extra":true}`))
	if err := DecodeJSONBody(r, &unknown); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown fields should be rejected, got %v", err)
	}
}

func TestParseQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/?featured=true&limit=500&bad=x", nil)
	if v, err := ParseQueryBool(r, "featured"); err != nil || !v {
		t.Fatalf("featured: %v %v", v, err)
	}
	if v, err := ParseQueryBool(r, "absent"); err != nil || v {
		t.Fatalf("absent should default to false")
	}
	if _, err := ParseQueryBool(r, "bad"); err == nil {
		t.Fatalf("expected error for non-boolean")
	}
	if _, err := ParseQueryInt(r, "limit", 20, 1, 100); err == nil {
		t.Fatalf("expected range error")
	}
	if v, err := ParseQueryInt(r, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default, got %d %v", v, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  sencha  ", 3); got != "sen" {
		t.Fatalf("unexpected %q", got)
	}
}
