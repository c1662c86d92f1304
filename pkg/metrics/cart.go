package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moritea/storefront/pkg/enums"
)

// CartMetrics records cart engine activity.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	denials         *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	hydrations      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a recorder whose methods are no-ops.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Applied cart ledger mutations by kind.",
	}, []string{"kind"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_stock_denials_total",
		Help: "Cart changes rejected by the stock guard.",
	}, []string{"decision"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart slot writes that failed and were dropped.",
	}, []string{"backend"})
	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_persist_duration_seconds",
		Help:    "Latency of cart slot reads and writes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_hydrations_total",
		Help: "Cart sessions hydrated from the slot by outcome.",
	}, []string{"result"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_active_sessions",
		Help: "Cart sessions currently held in memory.",
	})
	reg.MustRegister(mutations, denials, persistFailures, persistDuration, hydrations, activeSessions)
	return &CartMetrics{
		mutations:       mutations,
		denials:         denials,
		persistFailures: persistFailures,
		persistDuration: persistDuration,
		hydrations:      hydrations,
		activeSessions:  activeSessions,
	}
}

// IncMutation counts one applied ledger change.
func (c *CartMetrics) IncMutation(kind enums.CartChange) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(kind.String())).Inc()
}

// IncDenial counts a stock guard rejection.
func (c *CartMetrics) IncDenial(decision enums.StockDecision) {
	if c == nil || c.denials == nil {
		return
	}
	c.denials.WithLabelValues(normalizeLabel(decision.String())).Inc()
}

// IncPersistFailure counts a dropped slot write.
func (c *CartMetrics) IncPersistFailure(backend string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(backend)).Inc()
}

// ObservePersist records the latency of a slot operation ("load" or "save").
func (c *CartMetrics) ObservePersist(backend, op string, d time.Duration) {
	if c == nil || c.persistDuration == nil {
		return
	}
	c.persistDuration.WithLabelValues(normalizeLabel(backend), normalizeLabel(op)).Observe(d.Seconds())
}

// IncHydration counts a session hydration by result (restored, empty, corrupt).
func (c *CartMetrics) IncHydration(result string) {
	if c == nil || c.hydrations == nil {
		return
	}
	c.hydrations.WithLabelValues(normalizeLabel(result)).Inc()
}

// SetActiveSessions reports the registry size.
func (c *CartMetrics) SetActiveSessions(n int) {
	if c == nil || c.activeSessions == nil {
		return
	}
	c.activeSessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
