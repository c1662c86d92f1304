package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	orders         *prometheus.CounterVec
	reconcileFails *prometheus.CounterVec
	oversold       prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	reconcileFails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_reconcile_conflicts_total",
		Help: "Cart lines rejected during checkout reconciliation.",
	}, []string{"reason"})
	oversold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_oversold_units_total",
		Help: "Ordered units not covered by stock when the order committed.",
	})
	reg.MustRegister(orders, reconcileFails, oversold)
	return &CheckoutMetrics{orders: orders, reconcileFails: reconcileFails, oversold: oversold}
}

// IncOrder counts a placement attempt ("placed", "payment_incomplete", "failed").
func (c *CheckoutMetrics) IncOrder(outcome string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReconcileConflict counts a cart line that failed reconciliation.
func (c *CheckoutMetrics) IncReconcileConflict(reason string) {
	if c == nil || c.reconcileFails == nil {
		return
	}
	c.reconcileFails.WithLabelValues(normalizeLabel(reason)).Inc()
}

// AddOversold counts units sold beyond the recorded stock.
func (c *CheckoutMetrics) AddOversold(units int) {
	if c == nil || c.oversold == nil || units <= 0 {
		return
	}
	c.oversold.Add(float64(units))
}
