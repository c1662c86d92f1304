package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moritea/storefront/api/controllers"
	"github.com/moritea/storefront/api/middleware"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/catalog"
	"github.com/moritea/storefront/internal/checkout"
	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/pkg/config"
	"github.com/moritea/storefront/pkg/logger"
)

// Deps are the services mounted by the router. DB and Redis are optional
// pingers for the readiness probe.
type Deps struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Sessions *cart.Registry
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Orders   *orders.Service
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-payment-intent", controllers.CreatePaymentIntent(deps.Checkout, logg))
		r.Get("/payment-intent/{intentId}", controllers.PaymentIntentStatus(deps.Checkout, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Catalog, logg))
				r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.CartSession(cfg.Session, deps.Sessions, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", controllers.CartFetch(logg))
					r.Delete("/", controllers.CartClear(logg))
					r.Post("/items", controllers.CartAddItem(deps.Catalog, logg))
					r.Put("/items/{productId}", controllers.CartUpdateItem(logg))
					r.Delete("/items/{productId}", controllers.CartRemoveItem(logg))
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Get("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
					r.Post("/payment", controllers.CheckoutStartPayment(deps.Checkout, logg))
					r.Post("/orders", controllers.CheckoutPlaceOrder(deps.Checkout, logg))
					r.Get("/orders", controllers.CheckoutOrderList(deps.Orders, logg))
					r.Get("/orders/{orderId}", controllers.CheckoutOrderDetail(deps.Orders, logg))
				})
			})
		})
	})

	return r
}
