package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cart mutation labels.
const (
	CartOpAdd            = "add"
	CartOpRemove         = "remove"
	CartOpUpdateQuantity = "update_quantity"
	CartOpClear          = "clear"
	CartOpRestore        = "restore"
)

// Checkout outcome labels.
const (
	CheckoutOutcomeSubmitted = "submitted"
	CheckoutOutcomeRejected  = "rejected"
	CheckoutOutcomeFailed    = "failed"
)

// CartMetrics counts cart transitions and the failures around persisting them.
// A nil *CartMetrics is valid and records nothing.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures prometheus.Counter
	restoreFailures prometheus.Counter
	checkouts       *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return nil
	}
	m := &CartMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Applied cart transitions by operation.",
		}, []string{"op"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_persist_failures_total",
			Help: "Cart snapshots that could not be written.",
		}),
		restoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_restore_failures_total",
			Help: "Cart snapshots that could not be decoded on restore.",
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_total",
			Help: "Checkout attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.mutations, m.persistFailures, m.restoreFailures, m.checkouts)
	return m
}

// IncMutation counts one applied transition.
func (m *CartMetrics) IncMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistFailure counts a snapshot write that failed.
func (m *CartMetrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// IncRestoreFailure counts a snapshot that was rejected on restore.
func (m *CartMetrics) IncRestoreFailure() {
	if m == nil {
		return
	}
	m.restoreFailures.Inc()
}

// IncCheckout counts a checkout attempt by outcome.
func (m *CartMetrics) IncCheckout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}
