package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moritea/storefront/api/responses"
	"github.com/moritea/storefront/api/validators"
	"github.com/moritea/storefront/internal/catalog"
	"github.com/moritea/storefront/pkg/logger"
)

type productReader interface {
	ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.ProductDTO, error)
	GetProduct(ctx context.Context, id string) (*catalog.ProductDTO, error)
}

// ProductList returns the active catalog, optionally only featured products.
func ProductList(svc productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		products, err := svc.ListProducts(ctx, catalog.ListParams{Featured: featured})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductDetail(svc productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := validators.SanitizeString(chi.URLParam(r, "productId"), 64)

		product, err := svc.GetProduct(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
