package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
)

// MockProvider is the development stand-in for a real processor. Created
// intents start in requires_payment_method and read back as succeeded.
type MockProvider struct {
	now func() time.Time

	mu      sync.Mutex
	intents map[string]Intent
}

func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now, intents: make(map[string]Intent)}
}

func (p *MockProvider) Name() string { return ProviderMock }

func (p *MockProvider) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	id := fmt.Sprintf("pi_mock%d%s", p.now().UnixMilli(), randomToken(9))
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + randomToken(9),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       enums.PaymentStatusRequiresPaymentMethod,
		Metadata:     mergeMetadata(req.Metadata),
	}

	p.mu.Lock()
	p.intents[id] = intent
	p.mu.Unlock()

	out := intent
	return &out, nil
}

// GetIntent reports a previously created intent as succeeded.
func (p *MockProvider) GetIntent(_ context.Context, id string) (*Intent, error) {
	p.mu.Lock()
	intent, ok := p.intents[strings.TrimSpace(id)]
	p.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
	}
	intent.Status = enums.PaymentStatusSucceeded
	intent.ClientSecret = ""
	return &intent, nil
}

func randomToken(n int) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(token) {
		n = len(token)
	}
	return token[:n]
}
