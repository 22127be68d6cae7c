package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// PromoMetrics counts promotion evaluations and the storage calls around them.
type PromoMetrics struct {
	Applications   *prometheus.CounterVec
	DiscountAmount *prometheus.HistogramVec
	CatalogLookups *prometheus.CounterVec
	CartStoreOps   *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
	BreakerChanges *prometheus.CounterVec
}

// NewPromoMetrics registers the promotion collectors on reg.
func NewPromoMetrics(namespace string, reg prometheus.Registerer) *PromoMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromoMetrics{
		Applications: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_applications_total",
			Help:      "Promotion evaluations by action type and outcome.",
		}, []string{"tipo_accion", "result"})),
		DiscountAmount: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "promo_discount_amount",
			Help:      "Discount granted per applied promotion, in currency units.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"tipo_accion"})),
		CatalogLookups: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_catalog_lookups_total",
			Help:      "Gift product catalog lookups by result.",
		}, []string{"result"})),
		CartStoreOps: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_cart_store_ops_total",
			Help:      "Cart store operations by operation and result.",
		}, []string{"op", "result"})),
		BreakerState: registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})),
		BreakerChanges: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Breaker state transitions.",
		}, []string{"target", "from", "to"})),
	}
}

// ObserveApplication records one evaluation. A nil receiver is a no-op.
func (m *PromoMetrics) ObserveApplication(tipoAccion, result string, discount decimal.Decimal) {
	if m == nil {
		return
	}
	m.Applications.WithLabelValues(tipoAccion, result).Inc()
	if result == "applied" {
		m.DiscountAmount.WithLabelValues(tipoAccion).Observe(discount.InexactFloat64())
	}
}

// ObserveCatalogLookup records a gift lookup result.
func (m *PromoMetrics) ObserveCatalogLookup(result string) {
	if m == nil {
		return
	}
	m.CatalogLookups.WithLabelValues(result).Inc()
}

// ObserveCartStore records a cart store call; err decides the result label.
func (m *PromoMetrics) ObserveCartStore(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CartStoreOps.WithLabelValues(op, result).Inc()
}

// ObserveBreaker records a circuit breaker transition.
func (m *PromoMetrics) ObserveBreaker(target, from, to string) {
	if m == nil {
		return
	}
	m.BreakerChanges.WithLabelValues(target, from, to).Inc()
	state := -1.0
	switch to {
	case "closed":
		state = 0
	case "open":
		state = 1
	case "half_open":
		state = 2
	}
	m.BreakerState.WithLabelValues(target).Set(state)
}
