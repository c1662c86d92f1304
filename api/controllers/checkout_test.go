package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/api/middleware"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/checkout"
	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/pagination"
)

type stubCheckout struct {
	shipping  checkout.ShippingInfo
	input     checkout.PlaceOrderInput
	order     *models.Order
	orderErr  error
	startErr  error
	quoteErr  error
	startResp *checkout.PaymentStart
}

func (s *stubCheckout) Quote(*cart.Session) (checkout.Quote, error) {
	if s.quoteErr != nil {
		return checkout.Quote{}, s.quoteErr
	}
	return checkout.Quote{TotalItems: 1, Currency: enums.CurrencyEUR}, nil
}

func (s *stubCheckout) StartPayment(_ context.Context, _ *cart.Session, shipping checkout.ShippingInfo) (*checkout.PaymentStart, error) {
	s.shipping = shipping
	return s.startResp, s.startErr
}

func (s *stubCheckout) PlaceOrder(_ context.Context, _ *cart.Session, input checkout.PlaceOrderInput) (*models.Order, error) {
	s.input = input
	return s.order, s.orderErr
}

type stubOrders struct {
	order  *models.Order
	params pagination.Params
	user   string
}

func (s *stubOrders) ListByUser(_ context.Context, userID string, params pagination.Params) (*pagination.Page[models.Order], error) {
	s.user = userID
	s.params = params
	if s.order == nil {
		return &pagination.Page[models.Order]{}, nil
	}
	return &pagination.Page[models.Order]{Items: []models.Order{*s.order}, NextCursor: "next"}, nil
}

func (s stubOrders) Get(_ context.Context, id string) (*models.Order, error) {
	if s.order == nil || s.order.ID.String() != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func sampleOrder(userID *string) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		PaymentIntentID: "pi_1",
		Currency:        enums.CurrencyEUR,
		Status:          enums.OrderStatusPending,
		SubtotalPrice:   decimal.NewFromInt(20),
		ShippingPrice:   decimal.NewFromInt(5),
		TotalPrice:      decimal.NewFromInt(25),
		Items: []models.OrderItem{{
			ProductID:  uuid.New(),
			Name:       "Sencha",
			Quantity:   2,
			UnitPrice:  decimal.NewFromInt(10),
			TotalPrice: decimal.NewFromInt(20),
		}},
	}
}

const shippingJSON = `{"first_name":"Nigar","last_name":"Huseynova","email":"nigar@example.com","phone":"+994501234567","address":"28 May St","city":"Baku","postal_code":"AZ1000"}`

func TestCheckoutQuote(t *testing.T) {
	logg := testLogger()
	rec := httptest.NewRecorder()
	CheckoutQuote(&stubCheckout{}, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodGet, "/api/v1/checkout/quote", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	stub := &stubCheckout{quoteErr: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	CheckoutQuote(stub, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodGet, "/api/v1/checkout/quote", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}
}

func TestCheckoutStartPayment(t *testing.T) {
	logg := testLogger()
	stub := &stubCheckout{startResp: &checkout.PaymentStart{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: 2500}}

	rec := httptest.NewRecorder()
	req := newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/payment", `{"shipping":`+shippingJSON+`}`, nil)
	CheckoutStartPayment(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.shipping.City != "Baku" {
		t.Fatalf("shipping not forwarded: %+v", stub.shipping)
	}
	var start checkout.PaymentStart
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &start); err != nil || start.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected payment start %+v (%v)", start, err)
	}

	rec = httptest.NewRecorder()
	stub.startErr = pkgerrors.New(pkgerrors.CodeConflict, "cart changed").WithDetails(map[string]any{"items": []checkout.ReconcileIssue{{ProductID: "p1", Reason: checkout.ReasonUnavailable}}})
	CheckoutStartPayment(stub, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/payment", `{"shipping":{}}`, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on reconcile conflict, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	CheckoutStartPayment(stub, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/payment", `{"shipping":`, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestCheckoutPlaceOrder(t *testing.T) {
	logg := testLogger()

	t.Run("guest body user id is ignored", func(t *testing.T) {
		stub := &stubCheckout{order: sampleOrder(nil)}
		rec := httptest.NewRecorder()
		body := `{"payment_intent_id":" pi_1 ","user_id":"u-body","shipping":` + shippingJSON + `}`
		CheckoutPlaceOrder(stub, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/orders", body, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.input.PaymentIntentID != "pi_1" || stub.input.UserID != nil {
			t.Fatalf("unexpected input %+v", stub.input)
		}
		var view orderView
		if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &view); err != nil {
			t.Fatalf("decode order: %v", err)
		}
		if view.PaymentIntentID != "pi_1" || len(view.Items) != 1 || !view.Total.Equal(decimal.NewFromInt(25)) {
			t.Fatalf("unexpected order view %+v", view)
		}
	})

	t.Run("token user wins", func(t *testing.T) {
		stub := &stubCheckout{order: sampleOrder(nil)}
		ctx := middleware.WithUserID(sessionContext(newSession()), "u-token")
		rec := httptest.NewRecorder()
		body := `{"payment_intent_id":"pi_1","user_id":"u-body","shipping":` + shippingJSON + `}`
		CheckoutPlaceOrder(stub, logg).ServeHTTP(rec, newRequest(ctx, http.MethodPost, "/api/v1/checkout/orders", body, nil))
		if stub.input.UserID == nil || *stub.input.UserID != "u-token" {
			t.Fatalf("expected token user, got %+v", stub.input.UserID)
		}
	})

	t.Run("missing intent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CheckoutPlaceOrder(&stubCheckout{}, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/orders", `{"shipping":`+shippingJSON+`}`, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("payment incomplete", func(t *testing.T) {
		stub := &stubCheckout{orderErr: pkgerrors.New(pkgerrors.CodePaymentFailed, "payment not completed")}
		rec := httptest.NewRecorder()
		CheckoutPlaceOrder(stub, logg).ServeHTTP(rec, newRequest(sessionContext(newSession()), http.MethodPost, "/api/v1/checkout/orders", `{"payment_intent_id":"pi_1","shipping":`+shippingJSON+`}`, nil))
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
	})
}

func TestCheckoutOrderDetail(t *testing.T) {
	logg := testLogger()
	owner := "u-1"
	order := sampleOrder(&owner)
	svc := stubOrders{order: order}
	params := map[string]string{"orderId": order.ID.String()}

	rec := httptest.NewRecorder()
	ctx := middleware.WithUserID(context.Background(), owner)
	CheckoutOrderDetail(svc, logg).ServeHTTP(rec, newRequest(ctx, http.MethodGet, "/api/v1/checkout/orders/"+order.ID.String(), "", params))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner should see the order, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ctx = middleware.WithUserID(context.Background(), "someone-else")
	CheckoutOrderDetail(svc, logg).ServeHTTP(rec, newRequest(ctx, http.MethodGet, "/api/v1/checkout/orders/"+order.ID.String(), "", params))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other users must get 404, got %d", rec.Code)
	}

	guest := sampleOrder(nil)
	rec = httptest.NewRecorder()
	CheckoutOrderDetail(stubOrders{order: guest}, logg).ServeHTTP(rec, newRequest(context.Background(), http.MethodGet, "/", "", map[string]string{"orderId": guest.ID.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("guest orders are visible by id, got %d", rec.Code)
	}
}

func TestCheckoutOrderList(t *testing.T) {
	logg := testLogger()
	owner := "u-7"
	svc := &stubOrders{order: sampleOrder(&owner)}

	rec := httptest.NewRecorder()
	CheckoutOrderList(svc, logg).ServeHTTP(rec, newRequest(context.Background(), http.MethodGet, "/api/v1/checkout/orders", "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("guests have no order history, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ctx := middleware.WithUserID(context.Background(), owner)
	CheckoutOrderList(svc, logg).ServeHTTP(rec, newRequest(ctx, http.MethodGet, "/api/v1/checkout/orders?limit=5&cursor=abc", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.user != owner || svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected list call user=%s params=%+v", svc.user, svc.params)
	}
	var body struct {
		Data orderPageView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Items) != 1 || body.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", body.Data)
	}

	rec = httptest.NewRecorder()
	CheckoutOrderList(svc, logg).ServeHTTP(rec, newRequest(ctx, http.MethodGet, "/api/v1/checkout/orders?limit=500", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit above max should be rejected, got %d", rec.Code)
	}
}
