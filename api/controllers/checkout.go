package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/api/middleware"
	"github.com/moritea/storefront/api/responses"
	"github.com/moritea/storefront/api/validators"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/checkout"
	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/pagination"
	"github.com/moritea/storefront/pkg/types"
)

type checkoutService interface {
	Quote(session *cart.Session) (checkout.Quote, error)
	StartPayment(ctx context.Context, session *cart.Session, shipping checkout.ShippingInfo) (*checkout.PaymentStart, error)
	PlaceOrder(ctx context.Context, session *cart.Session, input checkout.PlaceOrderInput) (*models.Order, error)
}

type orderReader interface {
	Get(ctx context.Context, id string) (*models.Order, error)
}

type orderLister interface {
	ListByUser(ctx context.Context, userID string, params pagination.Params) (*pagination.Page[models.Order], error)
}

type orderPageView struct {
	Items      []orderView `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type startPaymentPayload struct {
	Shipping checkout.ShippingInfo `json:"shipping" validate:"-"`
}

type placeOrderPayload struct {
	PaymentIntentID string                `json:"payment_intent_id" validate:"required,max=255"`
	Shipping        checkout.ShippingInfo `json:"shipping" validate:"-"`
	// Sent by older clients; ownership comes from the session token only.
	UserID          *string               `json:"user_id,omitempty" validate:"omitempty,max=128"`
}

type orderItemView struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type orderView struct {
	ID              string                `json:"id"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentIntentID string                `json:"payment_intent_id"`
	Currency        enums.Currency        `json:"currency"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Shipping        decimal.Decimal       `json:"shipping"`
	Total           decimal.Decimal       `json:"total"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Items           []orderItemView       `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toOrderView(o *models.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ProductID:  it.ProductID.String(),
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return orderView{
		ID:              o.ID.String(),
		Status:          o.Status,
		PaymentIntentID: o.PaymentIntentID,
		Currency:        o.Currency,
		Subtotal:        o.SubtotalPrice,
		Shipping:        o.ShippingPrice,
		Total:           o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

func CheckoutQuote(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quote, err := svc.Quote(session)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutStartPayment reconciles the cart and opens a payment intent for it.
func CheckoutStartPayment(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload startPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		start, err := svc.StartPayment(ctx, session, payload.Shipping)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, start)
	}
}

// CheckoutPlaceOrder records the order for a confirmed payment intent. Only
// the signed-in user from the session token is attached; a user_id in the
// body is ignored.
func CheckoutPlaceOrder(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := checkout.PlaceOrderInput{
			PaymentIntentID: validators.SanitizeString(payload.PaymentIntentID, 255),
			Shipping:        payload.Shipping,
		}
		if uid := middleware.UserIDFromContext(ctx); uid != "" {
			input.UserID = &uid
		}

		order, err := svc.PlaceOrder(ctx, session, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderView(order))
	}
}

// CheckoutOrderDetail returns a placed order. Orders owned by a user are only
// visible to that user.
func CheckoutOrderDetail(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		order, err := svc.Get(ctx, validators.SanitizeString(chi.URLParam(r, "orderId"), 64))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if order.UserID != nil && *order.UserID != middleware.UserIDFromContext(ctx) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

// CheckoutOrderList pages the orders of the user bound to the cart session.
func CheckoutOrderList(svc orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view order history"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := svc.ListByUser(ctx, userID, pagination.Params{
			Limit:  limit,
			Cursor: validators.SanitizeString(r.URL.Query().Get("cursor"), 256),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := orderPageView{Items: make([]orderView, 0, len(page.Items)), NextCursor: page.NextCursor}
		for i := range page.Items {
			out.Items = append(out.Items, toOrderView(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
