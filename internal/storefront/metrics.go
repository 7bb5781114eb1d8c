package storefront

import (
	"github.com/prometheus/client_golang/prometheus"

	"Storefront/pkg/kit"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opReset  = "reset"

	outcomePlaced       = "placed"
	outcomeUnauthorized = "unauthorized"
	outcomeEmpty        = "empty"
	outcomeRejected     = "rejected"
	outcomeFailed       = "failed"
)

type Metrics struct {
	CartMutations *prometheus.CounterVec
	Checkouts     *prometheus.CounterVec
}

// NewMetrics registers the storefront counters on the service registry. A
// nil registry yields unregistered counters.
func NewMetrics(m *kit.Metrics) *Metrics {
	sm := &Metrics{
		CartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cart_mutations_total",
				Help: "Cart mutations persisted, by operation",
			},
			[]string{"op"},
		),
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkouts_total",
				Help: "Checkout attempts, by outcome",
			},
			[]string{"outcome"},
		),
	}
	if m != nil {
		m.Register(sm.CartMutations, sm.Checkouts)
	}
	return sm
}

func (m *Metrics) mutation(op string) {
	if m != nil {
		m.CartMutations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) checkout(outcome string) {
	if m != nil {
		m.Checkouts.WithLabelValues(outcome).Inc()
	}
}
