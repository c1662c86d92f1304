package cart

import (
	"context"
	"sync"

	"github.com/moritea/storefront/pkg/enums"
)

// Change describes one applied ledger mutation. Items is the ledger content
// after the mutation and is owned by the receiver.
type Change struct {
	Kind  enums.CartChange
	Key   string
	Items []LineItem
}

// Listener observes ledger changes. Listeners run synchronously after the
// mutation is applied, in subscription order, and may read the ledger but must
// not mutate it.
type Listener func(ctx context.Context, change Change)

// Ledger is an ordered set of line items keyed by product key. It is safe for
// concurrent use; writers are serialized together with their notifications so
// listeners observe changes in the order they were applied.
type Ledger struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	items     []LineItem
	listeners []subscription
	nextSubID uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Subscribe registers a listener and returns a function removing it.
func (l *Ledger) Subscribe(fn Listener) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSubID++
	id := l.nextSubID
	l.listeners = append(l.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, sub := range l.listeners {
				if sub.id == id {
					l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Add increments the quantity of product.Key, inserting it with quantity one
// when absent. Products without a key are ignored. No stock check happens here.
func (l *Ledger) Add(ctx context.Context, product Product) {
	l.mutate(ctx, enums.CartChangeAdded, product.Key, func() bool {
		if product.Key == "" {
			return false
		}
		if idx := l.indexOf(product.Key); idx >= 0 {
			l.items[idx].Quantity++
			return true
		}
		l.items = append(l.items, LineItem{Product: product.normalized(), Quantity: 1})
		return true
	})
}

// Remove deletes the line item for key. Absent keys are a no-op.
func (l *Ledger) Remove(ctx context.Context, key string) {
	l.mutate(ctx, enums.CartChangeRemoved, key, func() bool {
		return l.removeLocked(key)
	})
}

// SetQuantity replaces the quantity of an existing line item. n <= 0 removes
// it. A missing key is a no-op; only Add creates lines.
func (l *Ledger) SetQuantity(ctx context.Context, key string, n int) {
	if n <= 0 {
		l.Remove(ctx, key)
		return
	}
	l.mutate(ctx, enums.CartChangeQuantitySet, key, func() bool {
		idx := l.indexOf(key)
		if idx < 0 || l.items[idx].Quantity == n {
			return false
		}
		l.items[idx].Quantity = n
		return true
	})
}

// Clear empties the ledger.
func (l *Ledger) Clear(ctx context.Context) {
	l.mutate(ctx, enums.CartChangeCleared, "", func() bool {
		if len(l.items) == 0 {
			return false
		}
		l.items = nil
		return true
	})
}

// Refresh replaces the captured snapshot of an existing line item while
// keeping its quantity. Unknown keys are a no-op.
func (l *Ledger) Refresh(ctx context.Context, product Product) {
	l.mutate(ctx, enums.CartChangeRefreshed, product.Key, func() bool {
		idx := l.indexOf(product.Key)
		if idx < 0 {
			return false
		}
		l.items[idx].Product = product.normalized()
		return true
	})
}

// Restore replaces the whole content with items, typically read back from a
// persisted slot. Non-positive quantities are dropped and duplicate keys merged.
func (l *Ledger) Restore(ctx context.Context, items []LineItem) {
	clean := mergeLines(items)
	l.mutate(ctx, enums.CartChangeHydrated, "", func() bool {
		if len(clean) == 0 && len(l.items) == 0 {
			return false
		}
		l.items = clean
		return true
	})
}

// QuantityOf returns the quantity held for key, zero when absent.
func (l *Ledger) QuantityOf(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := l.indexOf(key); idx >= 0 {
		return l.items[idx].Quantity
	}
	return 0
}

// Item returns the line item for key.
func (l *Ledger) Item(key string) (LineItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := l.indexOf(key); idx >= 0 {
		return l.items[idx], true
	}
	return LineItem{}, false
}

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Len returns the number of distinct line items.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *Ledger) mutate(ctx context.Context, kind enums.CartChange, key string, apply func() bool) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if !apply() {
		l.mu.Unlock()
		return
	}
	change := Change{Kind: kind, Key: key, Items: l.snapshotLocked()}
	listeners := make([]Listener, len(l.listeners))
	for i, sub := range l.listeners {
		listeners[i] = sub.fn
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, Change{Kind: change.Kind, Key: change.Key, Items: copyLines(change.Items)})
	}
}

func (l *Ledger) indexOf(key string) int {
	for i := range l.items {
		if l.items[i].Product.Key == key {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeLocked(key string) bool {
	idx := l.indexOf(key)
	if idx < 0 {
		return false
	}
	l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	return true
}

func (l *Ledger) snapshotLocked() []LineItem {
	return copyLines(l.items)
}

func copyLines(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// mergeLines drops non-positive quantities and folds duplicate keys into the
// first occurrence, keeping its snapshot.
func mergeLines(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.Product.Key == "" {
			continue
		}
		if idx, ok := index[item.Product.Key]; ok {
			out[idx].Quantity += item.Quantity
			continue
		}
		index[item.Product.Key] = len(out)
		out = append(out, LineItem{Product: item.Product.normalized(), Quantity: item.Quantity})
	}
	return out
}
