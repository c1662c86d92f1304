package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/metrics"
)

// Session owns the ledger of one cart session and puts the stock guard in
// front of it. Guarded mutations are atomic with respect to each other.
type Session struct {
	id      string
	ledger  *Ledger
	store   *Store
	metrics *metrics.CartMetrics

	mu       sync.Mutex
	lastSeen atomic.Int64
}

// NewSession hydrates a ledger with items and wires persistence through store.
// A nil store leaves the session memory-only.
func NewSession(ctx context.Context, id string, items []LineItem, store *Store, m *metrics.CartMetrics) *Session {
	s := &Session{id: id, ledger: NewLedger(), store: store, metrics: m}
	s.ledger.Restore(ctx, items)

	s.ledger.Subscribe(func(_ context.Context, change Change) {
		m.IncMutation(change.Kind)
	})
	if store != nil {
		s.ledger.Subscribe(store.Listener(id))
	}
	s.Touch(time.Now())
	return s
}

// ID returns the cart-session ID.
func (s *Session) ID() string { return s.id }

// Persistent reports whether changes are written to a store.
func (s *Session) Persistent() bool { return s.store != nil }

// Sync reloads the ledger from the persisted slot, picking up writes made
// through another process. On a read error the in-memory cart is kept.
func (s *Session) Sync(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx, s.id)
	if err != nil {
		return err
	}
	if sameLines(items, s.ledger.Items()) {
		return nil
	}
	s.ledger.Restore(ctx, items)
	return nil
}

// Ledger exposes the underlying ledger, e.g. for additional subscribers.
func (s *Session) Ledger() *Ledger { return s.ledger }

// AddProduct adds one unit of product when the stock guard allows it.
func (s *Session) AddProduct(ctx context.Context, product Product) enums.StockDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	decision := CanAdd(product, s.ledger.QuantityOf(product.Key))
	if !decision.IsAllowed() {
		s.metrics.IncDenial(decision)
		return decision
	}
	s.ledger.Add(ctx, product)
	return decision
}

// UpdateQuantity sets the quantity of an existing line, guarded against the
// stock ceiling captured in its snapshot. The bool is false when key is not in
// the cart.
func (s *Session) UpdateQuantity(ctx context.Context, key string, n int) (enums.StockDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.ledger.Item(key)
	if !ok {
		return enums.StockAllowed, false
	}
	decision := CanSetQuantity(item.Product, n)
	if !decision.IsAllowed() {
		s.metrics.IncDenial(decision)
		return decision, true
	}
	s.ledger.SetQuantity(ctx, key, n)
	return decision, true
}

// Remove drops the line for key.
func (s *Session) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Remove(ctx, key)
}

// Clear empties the cart.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Clear(ctx)
}

// Refresh re-captures the snapshot of a line from a current catalog record.
func (s *Session) Refresh(ctx context.Context, product Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Refresh(ctx, product)
}

// Summary returns the current items with their derived totals.
func (s *Session) Summary() Summary {
	return Summarize(s.ledger.Items())
}

// Touch records activity at now.
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the last recorded activity.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}
