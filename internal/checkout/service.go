package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/internal/orders"
	"github.com/moritea/storefront/internal/payments"
	"github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/metrics"
)

const (
	paymentIntentConstraint       = "orders_payment_intent_id_key"
	paymentIntentConstraintSQLite = "orders.payment_intent_id"

	// metadataCartSession binds an intent to the cart session that opened it.
	metadataCartSession = "cart_session"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	Snapshots(ctx context.Context, ids []string) (map[string]cart.Product, error)
}

// outboxQueue persists the placed event in the order transaction.
type outboxQueue interface {
	QueuePlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type stockWriter interface {
	// DecrementStock returns the units the recorded stock could not cover.
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error)
}

// Deps are the collaborators of the checkout service.
type Deps struct {
	Tx        txRunner
	Catalog   catalogReader
	Stock     stockWriter
	Orders    orders.Repository
	Payments  payments.Provider
	Publisher orders.Publisher
	Outbox    outboxQueue
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

// Service runs the checkout flow around a cart session.
type Service struct {
	pricing        Pricing
	defaultCountry string

	tx        txRunner
	catalog   catalogReader
	stock     stockWriter
	orders    orders.Repository
	payments  payments.Provider
	publisher orders.Publisher
	outbox    outboxQueue
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(pricing Pricing, defaultCountry string, deps Deps) (*Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock writer required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Payments == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if !pricing.Currency.IsValid() {
		return nil, fmt.Errorf("unsupported checkout currency %q", pricing.Currency)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = orders.NewLogPublisher(deps.Logger)
	}
	return &Service{
		pricing:        pricing,
		defaultCountry: defaultCountry,
		tx:             deps.Tx,
		catalog:        deps.Catalog,
		stock:          deps.Stock,
		orders:         deps.Orders,
		payments:       deps.Payments,
		publisher:      publisher,
		outbox:         deps.Outbox,
		logg:           deps.Logger,
		metrics:        deps.Metrics,
	}, nil
}

// Quote prices the current contents of the session.
func (s *Service) Quote(session *cart.Session) (Quote, error) {
	return s.pricing.Quote(session.Ledger().Items())
}

// PaymentStart is returned to the client to confirm the payment.
type PaymentStart struct {
	ClientSecret string              `json:"client_secret"`
	ID           string              `json:"id"`
	Amount       int64               `json:"amount"`
	Currency     enums.Currency      `json:"currency"`
	Status       enums.PaymentStatus `json:"status"`
	Quote        Quote               `json:"quote"`
}

// StartPayment reconciles the cart with the catalog and opens a payment
// intent for the reconciled total.
func (s *Service) StartPayment(ctx context.Context, session *cart.Session, shipping ShippingInfo) (*PaymentStart, error) {
	shipping = shipping.normalized(s.defaultCountry)
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}
	if session.Ledger().Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.reconcile(ctx, session); err != nil {
		return nil, err
	}

	quote, err := s.Quote(session)
	if err != nil {
		return nil, err
	}
	intent, err := s.payments.CreateIntent(ctx, payments.IntentRequest{
		Amount:       MinorUnits(quote.Total),
		Currency:     quote.Currency,
		ReceiptEmail: shipping.Email,
		Metadata: map[string]string{
			metadataCartSession: session.ID(),
			"total_items":  strconv.Itoa(quote.TotalItems),
		},
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"provider":          s.payments.Name(),
	}), "payment intent created")

	return &PaymentStart{
		ClientSecret: intent.ClientSecret,
		ID:           intent.ID,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		Status:       intent.Status,
		Quote:        quote,
	}, nil
}

// ReconcileIssue describes a cart line that can no longer be bought as is.
type ReconcileIssue struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	Requested int    `json:"requested"`
	Available *int   `json:"available,omitempty"`
}

const (
	ReasonUnavailable       = "unavailable"
	ReasonInsufficientStock = "insufficient_stock"
)

// reconcile refreshes every snapshot from the catalog and reports the lines
// whose product is gone or whose quantity exceeds current stock.
func (s *Service) reconcile(ctx context.Context, session *cart.Session) error {
	items := session.Ledger().Items()
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key())
	}
	current, err := s.catalog.Snapshots(ctx, keys)
	if err != nil {
		return err
	}

	var issues []ReconcileIssue
	for _, item := range items {
		snap, ok := current[item.Key()]
		if !ok {
			issues = append(issues, ReconcileIssue{
				ProductID: item.Key(),
				Name:      item.Product.Name,
				Reason:    ReasonUnavailable,
				Requested: item.Quantity,
			})
			continue
		}
		session.Refresh(ctx, snap)
		if ceiling, limited := snap.StockCeiling(); limited && item.Quantity > ceiling {
			available := ceiling
			issues = append(issues, ReconcileIssue{
				ProductID: item.Key(),
				Name:      snap.Name,
				Reason:    ReasonInsufficientStock,
				Requested: item.Quantity,
				Available: &available,
			})
		}
	}
	if len(issues) == 0 {
		return nil
	}

	for _, issue := range issues {
		s.metrics.IncReconcileConflict(issue.Reason)
	}
	s.logg.Warn(s.logg.WithField(ctx, "issues", len(issues)), "cart failed reconciliation")
	return pkgerrors.New(pkgerrors.CodeConflict, "some items in your cart are no longer available").
		WithDetails(map[string]any{"items": issues})
}

// PlaceOrderInput identifies the paid intent and delivery details.
type PlaceOrderInput struct {
	PaymentIntentID string
	Shipping        ShippingInfo
	UserID          *string
}

// PlaceOrder turns a paid cart into an order. The order, its items and the
// stock decrements commit together; the cart is cleared only afterwards.
// Placing the same intent twice returns the existing order to its owner and
// a conflict to everyone else.
func (s *Service) PlaceOrder(ctx context.Context, session *cart.Session, input PlaceOrderInput) (*models.Order, error) {
	intentID := strings.TrimSpace(input.PaymentIntentID)
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	shipping := input.Shipping.normalized(s.defaultCountry)
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}
	ctx = s.logg.WithField(ctx, "payment_intent_id", intentID)

	existing, err := s.orders.FindByPaymentIntent(ctx, intentID)
	switch {
	case err == nil:
		return s.existingOrder(ctx, session, existing, input.UserID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}

	items := session.Ledger().Items()
	quote, err := s.pricing.Quote(items)
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !intentOpenedBy(intent, session) {
		s.logg.Warn(ctx, "payment intent opened by another cart session")
		return nil, errIntentTaken()
	}
	if err := verifyIntent(intent, quote); err != nil {
		s.metrics.IncOrder("payment_incomplete")
		return nil, err
	}

	order, err := buildOrder(intentID, quote, items, shipping, input.UserID)
	if err != nil {
		return nil, err
	}

	oversold := map[uuid.UUID]int{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		clear(oversold)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			short, err := s.stock.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			if short > 0 {
				oversold[item.ProductID] = short
			}
		}
		if s.outbox != nil {
			if err := s.outbox.QueuePlaced(ctx, tx, order); err != nil {
				return fmt.Errorf("queue order event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, paymentIntentConstraint) || db.IsUniqueViolation(err, paymentIntentConstraintSQLite) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already placed for this payment")
		}
		s.metrics.IncOrder("failed")
		s.logg.Error(ctx, "order not placed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	session.Clear(ctx)
	s.metrics.IncOrder("placed")

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order placed")
	for productID, short := range oversold {
		s.metrics.AddOversold(short)
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"oversold":   short,
		}), "order exceeds recorded stock")
	}
	if s.outbox != nil {
		return order, nil
	}
	if err := s.publisher.PublishPlaced(ctx, order); err != nil {
		s.logg.Error(ctx, "order event not published", err)
	}
	return order, nil
}

// existingOrder replays an earlier placement. The caller must be the signed-in
// owner of the order or the cart session that opened the intent.
func (s *Service) existingOrder(ctx context.Context, session *cart.Session, order *models.Order, userID *string) (*models.Order, error) {
	if order.UserID != nil && userID != nil && *order.UserID == strings.TrimSpace(*userID) {
		return order, nil
	}
	intent, err := s.payments.GetIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if owner := intent.Metadata[metadataCartSession]; owner == "" || owner != session.ID() {
		s.logg.Warn(ctx, "repeat placement from a foreign cart session")
		return nil, errIntentTaken()
	}
	return order, nil
}

// intentOpenedBy reports whether a checkout intent may be spent by session.
// Intents created outside checkout carry no cart session and are accepted.
func intentOpenedBy(intent *payments.Intent, session *cart.Session) bool {
	owner := intent.Metadata[metadataCartSession]
	return owner == "" || owner == session.ID()
}

func errIntentTaken() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "order already placed for this payment")
}

func verifyIntent(intent *payments.Intent, quote Quote) error {
	if !intent.Status.IsPaid() {
		return pkgerrors.New(pkgerrors.CodePaymentFailed, "payment has not succeeded").
			WithDetails(map[string]any{"status": intent.Status})
	}
	expected := MinorUnits(quote.Total)
	if intent.Amount != expected || intent.Currency != quote.Currency {
		return pkgerrors.New(pkgerrors.CodePaymentFailed, "payment does not match the cart total").
			WithDetails(map[string]any{
				"expected_amount": expected,
				"paid_amount":     intent.Amount,
				"currency":        intent.Currency,
			})
	}
	return nil
}

func buildOrder(intentID string, quote Quote, items []cart.LineItem, shipping ShippingInfo, userID *string) (*models.Order, error) {
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.Key())
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains an unknown product").
				WithDetails(map[string]string{"product_id": item.Key()})
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  productID,
			Name:       item.Product.Name,
			Quantity:   item.Quantity,
			UnitPrice:  cart.EffectivePrice(item),
			TotalPrice: item.LineTotal(),
		})
	}

	order := &models.Order{
		SubtotalPrice:   quote.Subtotal,
		ShippingPrice:   quote.Shipping,
		TotalPrice:      quote.Total,
		Currency:        quote.Currency,
		Status:          enums.OrderStatusPaid,
		PaymentIntentID: intentID,
		ShippingAddress: shipping.ToAddress(),
		Items:           orderItems,
	}
	if userID != nil && strings.TrimSpace(*userID) != "" {
		uid := strings.TrimSpace(*userID)
		order.UserID = &uid
	} else {
		name := shipping.ToAddress().FullName()
		order.GuestEmail = &shipping.Email
		order.GuestName = &name
		order.GuestPhone = &shipping.Phone
	}
	return order, nil
}

// CreateIntent opens a standalone payment intent for amount in major units.
// An empty currency falls back to the store currency.
func (s *Service) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*payments.Intent, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}
	cur := s.pricing.Currency
	if strings.TrimSpace(currency) != "" {
		parsed, err := enums.ParseCurrency(currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
				WithDetails(map[string]string{"currency": "is not supported"})
		}
		cur = parsed
	}
	return s.payments.CreateIntent(ctx, payments.IntentRequest{Amount: MinorUnits(amount), Currency: cur})
}

// IntentStatus looks up a payment intent without its client secret.
func (s *Service) IntentStatus(ctx context.Context, id string) (*payments.Intent, error) {
	intent, err := s.payments.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	out := *intent
	out.ClientSecret = ""
	return &out, nil
}
