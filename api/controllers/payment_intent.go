package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/api/responses"
	"github.com/moritea/storefront/api/validators"
	"github.com/moritea/storefront/internal/payments"
	"github.com/moritea/storefront/pkg/logger"
)

type intentService interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*payments.Intent, error)
	IntentStatus(ctx context.Context, id string) (*payments.Intent, error)
}

// Amount is in major units, e.g. 12.50.
type createIntentPayload struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,max=8"`
}

// CreatePaymentIntent opens a standalone intent for a client-computed amount.
func CreatePaymentIntent(svc intentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createIntentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(ctx, payload.Amount, validators.SanitizeString(payload.Currency, 8))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"payment_intent_id": intent.ID,
			"amount":            intent.Amount,
			"currency":          intent.Currency,
		}), "payment intent created")
		responses.WriteSuccess(w, intent)
	}
}

func PaymentIntentStatus(svc intentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		intent, err := svc.IntentStatus(ctx, validators.SanitizeString(chi.URLParam(r, "intentId"), 255))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}
