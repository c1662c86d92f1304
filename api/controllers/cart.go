package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/api/middleware"
	"github.com/moritea/storefront/api/responses"
	"github.com/moritea/storefront/api/validators"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/logger"
)

type snapshotReader interface {
	Snapshot(ctx context.Context, id string) (cart.Product, error)
}

type cartItemView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	Stock     *int             `json:"stock"`
	Images    []string         `json:"images"`
	Quantity  int              `json:"quantity"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

type cartView struct {
	Items       []cartItemView  `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type cartChangeView struct {
	Decision enums.StockDecision `json:"decision"`
	Message  string              `json:"message"`
	Cart     cartView            `json:"cart"`
}

func toCartView(summary cart.Summary) cartView {
	items := make([]cartItemView, 0, len(summary.Items))
	for _, item := range summary.Items {
		images := item.Product.Images
		if images == nil {
			images = []string{}
		}
		items = append(items, cartItemView{
			ID:        item.Key(),
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			SalePrice: item.Product.DiscountPrice,
			Stock:     item.Product.Stock,
			Images:    images,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return cartView{Items: items, TotalItems: summary.TotalItems, TotalAmount: summary.TotalAmount}
}

func stockDenied(decision enums.StockDecision) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, decision.Message()).
		WithDetails(map[string]any{"decision": decision, "message": decision.Message()})
}

func sessionFrom(r *http.Request) (*cart.Session, error) {
	s := middleware.CartSessionFromContext(r.Context())
	if s == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart session unavailable")
	}
	return s, nil
}

type addCartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

type updateCartItemPayload struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(session.Summary()))
	}
}

// CartAddItem adds one unit of a catalog product to the caller's cart.
func CartAddItem(catalog snapshotReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalog.Snapshot(ctx, validators.SanitizeString(payload.ProductID, 64))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decision := session.AddProduct(ctx, product)
		if !decision.IsAllowed() {
			responses.WriteError(logg.WithField(ctx, "product_id", product.Key), logg, w, stockDenied(decision))
			return
		}
		responses.WriteSuccess(w, cartChangeView{
			Decision: decision,
			Message:  decision.Message(),
			Cart:     toCartView(session.Summary()),
		})
	}
}

// CartUpdateItem sets the quantity of a line already in the cart. Zero removes it.
func CartUpdateItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		key := validators.SanitizeString(chi.URLParam(r, "productId"), 64)
		decision, found := session.UpdateQuantity(ctx, key, *payload.Quantity)
		if !found {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
			return
		}
		if !decision.IsAllowed() {
			responses.WriteError(logg.WithField(ctx, "product_id", key), logg, w, stockDenied(decision))
			return
		}
		responses.WriteSuccess(w, toCartView(session.Summary()))
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session.Remove(ctx, validators.SanitizeString(chi.URLParam(r, "productId"), 64))
		responses.WriteSuccess(w, toCartView(session.Summary()))
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session.Clear(ctx)
		responses.WriteSuccess(w, toCartView(session.Summary()))
	}
}
