package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/pkg/enums"
	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/metrics"
)

// ErrSlotEmpty is returned by backends when no payload exists for a key.
var ErrSlotEmpty = errors.New("cart slot empty")

// SlotKey addresses one session's payload inside a named slot.
type SlotKey struct {
	Slot      string
	SessionID string
}

func (k SlotKey) String() string {
	return k.Slot + ":" + k.SessionID
}

// Backend is a durable key-value home for serialized carts.
type Backend interface {
	Name() string
	Get(ctx context.Context, key SlotKey) ([]byte, error)
	Put(ctx context.Context, key SlotKey, payload []byte) error
}

// Store serializes ledgers into a Backend. Missing or corrupt slots read as an
// empty cart; write failures are logged and counted, never returned.
type Store struct {
	backend Backend
	slot    string
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewStore binds a backend to the named slot.
func NewStore(backend Backend, slot string, logg *logger.Logger, m *metrics.CartMetrics) *Store {
	return &Store{backend: backend, slot: slot, logg: logg, metrics: m}
}

// Slot returns the slot name payloads are written under.
func (s *Store) Slot() string {
	return s.slot
}

// Load reads the cart persisted for sessionID. Missing or malformed payloads
// yield an empty cart. An error means the backend could not be read and the
// slot may still hold a cart.
func (s *Store) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	key := SlotKey{Slot: s.slot, SessionID: sessionID}
	ctx = s.logg.WithFields(ctx, map[string]any{"slot": s.slot, "backend": s.backend.Name()})

	start := time.Now()
	raw, err := s.backend.Get(ctx, key)
	s.metrics.ObservePersist(s.backend.Name(), "load", time.Since(start))
	switch {
	case errors.Is(err, ErrSlotEmpty):
		s.metrics.IncHydration("empty")
		return nil, nil
	case err != nil:
		s.logg.Warn(logWithErr(s.logg, ctx, err), "cart slot unreadable")
		s.metrics.IncHydration("error")
		return nil, fmt.Errorf("read cart slot %s: %w", key, err)
	}

	items, err := decodeSlot(raw)
	if err != nil {
		s.logg.Warn(logWithErr(s.logg, ctx, err), "cart slot corrupt, starting fresh")
		s.metrics.IncHydration("corrupt")
		return nil, nil
	}
	s.metrics.IncHydration("restored")
	return mergeLines(items), nil
}

// Save writes items for sessionID.
func (s *Store) Save(ctx context.Context, sessionID string, items []LineItem) {
	key := SlotKey{Slot: s.slot, SessionID: sessionID}
	payload, err := encodeSlot(items)
	if err == nil {
		start := time.Now()
		err = s.backend.Put(ctx, key, payload)
		s.metrics.ObservePersist(s.backend.Name(), "save", time.Since(start))
	}
	if err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"slot": s.slot, "backend": s.backend.Name()})
		s.logg.Error(ctx, "cart not saved", err)
		s.metrics.IncPersistFailure(s.backend.Name())
	}
}

// Listener returns a ledger listener persisting every change for sessionID.
func (s *Store) Listener(sessionID string) Listener {
	return func(ctx context.Context, change Change) {
		if change.Kind == enums.CartChangeHydrated {
			return
		}
		s.Save(ctx, sessionID, change.Items)
	}
}

func logWithErr(logg *logger.Logger, ctx context.Context, err error) context.Context {
	return logg.WithField(ctx, "error", err.Error())
}

// slotLine is the persisted shape of a line item, flat like the storefront's
// original localStorage value.
type slotLine struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     slotPrice  `json:"price"`
	SalePrice *slotPrice `json:"sale_price,omitempty"`
	Stock     *int       `json:"stock,omitempty"`
	Images    []string   `json:"images,omitempty"`
	Quantity  int        `json:"quantity"`
}

// slotPrice writes decimals as JSON numbers and reads numbers or strings.
type slotPrice struct {
	decimal.Decimal
}

func (p slotPrice) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func (p *slotPrice) UnmarshalJSON(data []byte) error {
	return p.Decimal.UnmarshalJSON(data)
}

func encodeSlot(items []LineItem) ([]byte, error) {
	lines := make([]slotLine, 0, len(items))
	for _, item := range items {
		line := slotLine{
			ID:       item.Product.Key,
			Name:     item.Product.Name,
			Price:    slotPrice{item.Product.Price},
			Stock:    item.Product.Stock,
			Images:   item.Product.Images,
			Quantity: item.Quantity,
		}
		if item.Product.HasDiscount() {
			line.SalePrice = &slotPrice{*item.Product.DiscountPrice}
		}
		lines = append(lines, line)
	}
	return json.Marshal(lines)
}

// sameLines reports whether a and b persist to the same payload.
func sameLines(a, b []LineItem) bool {
	left, errA := encodeSlot(a)
	right, errB := encodeSlot(b)
	return errA == nil && errB == nil && bytes.Equal(left, right)
}

func decodeSlot(raw []byte) ([]LineItem, error) {
	var lines []slotLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart slot: %w", err)
	}
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		if line.Price.IsNegative() {
			continue
		}
		product := Product{
			Key:    line.ID,
			Name:   line.Name,
			Price:  line.Price.Decimal,
			Stock:  line.Stock,
			Images: line.Images,
		}
		if line.SalePrice != nil {
			d := line.SalePrice.Decimal
			product.DiscountPrice = &d
		}
		items = append(items, LineItem{Product: product, Quantity: line.Quantity})
	}
	return items, nil
}
