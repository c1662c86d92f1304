package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	pkgstripe "github.com/moritea/storefront/pkg/stripe"
)

type intentAPI interface {
	New(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeIntentAPI struct{}

func (stripeIntentAPI) New(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.New(params)
}

func (stripeIntentAPI) Get(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.Get(id, params)
}

// StripeProvider creates payment intents with automatic payment methods.
type StripeProvider struct {
	api intentAPI
}

// NewStripeProvider requires an initialized Stripe client.
func NewStripeProvider(client *pkgstripe.Client) (*StripeProvider, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &StripeProvider{api: stripeIntentAPI{}}, nil
}

func (p *StripeProvider) Name() string { return ProviderStripe }

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency.String()),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if email := strings.TrimSpace(req.ReceiptEmail); email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	for k, v := range mergeMetadata(req.Metadata) {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.New(ctx, params)
	if err != nil {
		return nil, mapStripeErr(err, "create payment intent")
	}
	return fromStripe(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	pi, err := p.api.Get(ctx, id, &stripe.PaymentIntentParams{})
	if err != nil {
		return nil, mapStripeErr(err, "retrieve payment intent")
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	currency, err := enums.ParseCurrency(string(pi.Currency))
	if err != nil {
		currency = enums.Currency(strings.ToLower(string(pi.Currency)))
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     currency,
		Status:       enums.PaymentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
}

func mapStripeErr(err error, msg string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment intent not found")
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 && stripeErr.HTTPStatusCode != http.StatusTooManyRequests:
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg).WithDetails(map[string]any{
				"type": string(stripeErr.Type),
				"code": string(stripeErr.Code),
			})
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
