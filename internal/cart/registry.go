package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/moritea/storefront/pkg/logger"
	"github.com/moritea/storefront/pkg/metrics"
)

var errSessionIDRequired = errors.New("cart session id is required")

// RegistryOptions tunes session eviction.
type RegistryOptions struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Logger        *logger.Logger
	Metrics       *metrics.CartMetrics
}

// Registry holds live sessions by ID and evicts idle ones. The store stays the
// source of truth: live sessions are re-read from it on every Get.
type Registry struct {
	store   *Store
	idleTTL time.Duration
	every   time.Duration
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(store *Store, opts RegistryOptions) *Registry {
	return &Registry{
		store:    store,
		idleTTL:  opts.IdleTTL,
		every:    opts.SweepInterval,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, synced with its slot. Concurrent first
// requests for the same id share one hydration. When the slot cannot be read
// the caller gets a memory-only session that is neither kept nor persisted,
// so the stored cart is never overwritten with an empty one.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errSessionIDRequired
	}
	if s := r.lookup(id); s != nil {
		if err := s.Sync(ctx); err != nil {
			r.logg.Warn(logWithErr(r.logg, ctx, err), "cart slot not re-read, serving the live cart")
		}
		s.Touch(r.now())
		return s, nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		if s := r.lookup(id); s != nil {
			return s, nil
		}
		return r.hydrate(ctx, id), nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	s.Touch(r.now())
	return s, nil
}

// hydrate loads the slot detached from the caller's cancellation, since the
// result is shared with every concurrent caller.
func (r *Registry) hydrate(ctx context.Context, id string) *Session {
	var items []LineItem
	if r.store != nil {
		loaded, err := r.store.Load(context.WithoutCancel(ctx), id)
		if err != nil {
			r.logg.Warn(logWithErr(r.logg, ctx, err), "cart slot unreadable, serving a detached cart")
			return NewSession(ctx, id, nil, nil, r.metrics)
		}
		items = loaded
	}
	s := NewSession(ctx, id, items, r.store, r.metrics)

	r.mu.Lock()
	r.sessions[id] = s
	size := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(size)
	r.logg.Debug(r.logg.WithField(ctx, "items", len(items)), "cart session hydrated")
	return s
}

// Forget drops the live session for id. Its persisted slot is untouched, so
// the next Get hydrates it again. Holders of the old handle keep persisting.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	size := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(size)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the idle TTL relative to now and
// returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	evicted := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	size := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(size)
	return evicted
}

// Run sweeps on the configured interval until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.every <= 0 || r.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "idle cart sessions evicted")
			}
		}
	}
}

func (r *Registry) lookup(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}
