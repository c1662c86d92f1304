package payments

import (
	"context"
	"strings"

	"github.com/moritea/storefront/pkg/enums"
)

// IntentRequest describes a payment intent to create. Amount is in minor
// currency units.
type IntentRequest struct {
	Amount       int64
	Currency     enums.Currency
	ReceiptEmail string
	Metadata     map[string]string
}

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string              `json:"id"`
	ClientSecret string              `json:"client_secret,omitempty"`
	Amount       int64               `json:"amount"`
	Currency     enums.Currency      `json:"currency"`
	Status       enums.PaymentStatus `json:"status"`
	Metadata     map[string]string   `json:"-"`
}

// Provider creates and looks up payment intents.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

const (
	ProviderStripe = "stripe"
	ProviderMock   = "mock"

	metadataIntegration = "integration"
	integrationName     = "mori-storefront"
)

func mergeMetadata(extra map[string]string) map[string]string {
	out := map[string]string{metadataIntegration: integrationName}
	for k, v := range extra {
		k = strings.TrimSpace(k)
		if k == "" || k == metadataIntegration {
			continue
		}
		out[k] = v
	}
	return out
}
