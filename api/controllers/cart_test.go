package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/internal/cart"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
)

type stubSnapshots struct {
	products map[string]cart.Product
}

func (s stubSnapshots) Snapshot(_ context.Context, id string) (cart.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func decodeCart(t *testing.T, raw json.RawMessage) cartView {
	t.Helper()
	var view cartView
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return view
}

func TestCartAddItem(t *testing.T) {
	logg := testLogger()
	catalog := stubSnapshots{products: map[string]cart.Product{
		"sencha": teaProduct("sencha", "12.50", intPtr(1)),
		"matcha": teaProduct("matcha", "20", intPtr(0)),
	}}
	session := newSession()

	add := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		CartAddItem(catalog, logg).ServeHTTP(rec, newRequest(sessionContext(session), http.MethodPost, "/api/v1/cart/items", body, nil))
		return rec
	}

	t.Run("adds one unit", func(t *testing.T) {
		rec := add(`{"product_id":"sencha"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var change struct {
			Decision string          `json:"decision"`
			Message  string          `json:"message"`
			Cart     json.RawMessage `json:"cart"`
		}
		if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &change); err != nil {
			t.Fatalf("decode: %v", err)
		}
		view := decodeCart(t, change.Cart)
		if change.Decision != "allowed" || view.TotalItems != 1 || view.Items[0].ID != "sencha" {
			t.Fatalf("unexpected change %+v cart %+v", change, view)
		}
	})

	t.Run("limit reached", func(t *testing.T) {
		rec := add(`{"product_id":"sencha"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != string(pkgerrors.CodeOutOfStock) {
			t.Fatalf("unexpected error %s", rec.Body.String())
		}
		if !strings.Contains(string(env.Error.Details), `"decision":"limit_reached"`) {
			t.Fatalf("expected decision in details, got %s", env.Error.Details)
		}
	})

	t.Run("out of stock", func(t *testing.T) {
		rec := add(`{"product_id":"matcha"}`)
		env := decodeEnvelope(t, rec)
		if rec.Code != http.StatusConflict || !strings.Contains(string(env.Error.Details), `"decision":"out_of_stock"`) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		if rec := add(`{"product_id":"oolong"}`); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("missing product id", func(t *testing.T) {
		if rec := add(`{}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	if session.Ledger().QuantityOf("sencha") != 1 || session.Ledger().Len() != 1 {
		t.Fatalf("denied adds must not change the cart: %+v", session.Ledger().Items())
	}
}

func TestCartUpdateItem(t *testing.T) {
	logg := testLogger()
	session := newSession()
	session.AddProduct(context.Background(), teaProduct("sencha", "10", intPtr(3)))

	update := func(key, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := newRequest(sessionContext(session), http.MethodPut, "/api/v1/cart/items/"+key, body, map[string]string{"productId": key})
		CartUpdateItem(logg).ServeHTTP(rec, req)
		return rec
	}

	rec := update("sencha", `{"quantity":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if view := decodeCart(t, decodeEnvelope(t, rec).Data); view.TotalItems != 3 || !view.TotalAmount.Equal(view.Items[0].LineTotal) {
		t.Fatalf("unexpected cart %+v", view)
	}

	if rec := update("sencha", `{"quantity":4}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 above stock, got %d", rec.Code)
	}
	if rec := update("oolong", `{"quantity":1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing line, got %d", rec.Code)
	}
	if rec := update("sencha", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity, got %d", rec.Code)
	}
	if rec := update("sencha", `{"quantity":-1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity, got %d", rec.Code)
	}

	rec = update("sencha", `{"quantity":0}`)
	if view := decodeCart(t, decodeEnvelope(t, rec).Data); rec.Code != http.StatusOK || len(view.Items) != 0 {
		t.Fatalf("quantity 0 should remove the line, got %d %+v", rec.Code, view)
	}
}

func TestCartRemoveAndClearAreIdempotent(t *testing.T) {
	logg := testLogger()
	session := newSession()
	ctx := context.Background()
	session.AddProduct(ctx, teaProduct("sencha", "10", nil))
	session.AddProduct(ctx, teaProduct("matcha", "20", nil))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := newRequest(sessionContext(session), http.MethodDelete, "/api/v1/cart/items/sencha", "", map[string]string{"productId": "sencha"})
		CartRemoveItem(logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("remove attempt %d: expected 200, got %d", i, rec.Code)
		}
	}
	if session.Ledger().Len() != 1 {
		t.Fatalf("expected one line left, got %d", session.Ledger().Len())
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		CartClear(logg).ServeHTTP(rec, newRequest(sessionContext(session), http.MethodDelete, "/api/v1/cart", "", nil))
		view := decodeCart(t, decodeEnvelope(t, rec).Data)
		if rec.Code != http.StatusOK || view.TotalItems != 0 || len(view.Items) != 0 {
			t.Fatalf("clear attempt %d: unexpected %d %+v", i, rec.Code, view)
		}
	}
}

func TestCartFetch(t *testing.T) {
	logg := testLogger()
	session := newSession()
	ctx := context.Background()
	sale := teaProduct("sencha", "10", nil)
	d := decimal.RequireFromString("5")
	sale.DiscountPrice = &d
	session.AddProduct(ctx, sale)
	session.AddProduct(ctx, sale)

	rec := httptest.NewRecorder()
	CartFetch(logg).ServeHTTP(rec, newRequest(sessionContext(session), http.MethodGet, "/api/v1/cart", "", nil))
	view := decodeCart(t, decodeEnvelope(t, rec).Data)
	if view.TotalItems != 2 || view.TotalAmount.String() != "10" {
		t.Fatalf("expected discounted total 10, got %+v", view)
	}
	if view.Items[0].Images == nil {
		t.Fatalf("images should serialize as an empty list")
	}

	rec = httptest.NewRecorder()
	CartFetch(logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without session, got %d", rec.Code)
	}
}
