package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FuturesMetrics aggregates the settlement counters exported by the node.
type FuturesMetrics struct {
	created         prometheus.Counter
	deposits        prometheus.Counter
	mints           prometheus.Counter
	deliveries      prometheus.Counter
	deliveryClaims  prometheus.Counter
	claims          prometheus.Counter
	refunds         prometheus.Counter
	operationErrors *prometheus.CounterVec
}

var (
	futuresOnce     sync.Once
	futuresRegistry *FuturesMetrics
)

// Futures returns the process-wide futures metrics, registering them on first
// use.
func Futures() *FuturesMetrics {
	futuresOnce.Do(func() {
		futuresRegistry = &FuturesMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_created_total",
				Help: "Count of futures created.",
			}),
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_deposits_total",
				Help: "Count of security deposits posted.",
			}),
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_mints_total",
				Help: "Count of claim-unit mint operations.",
			}),
			deliveries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_deliveries_total",
				Help: "Count of deliverable submissions.",
			}),
			deliveryClaims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_delivery_claims_total",
				Help: "Count of owner delivery-claim settlements.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_claims_total",
				Help: "Count of holder claim redemptions.",
			}),
			refunds: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "futures_refunds_total",
				Help: "Count of owner deposit refunds.",
			}),
			operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "futures_operation_errors_total",
				Help: "Count of failed settlement operations by operation.",
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			futuresRegistry.created,
			futuresRegistry.deposits,
			futuresRegistry.mints,
			futuresRegistry.deliveries,
			futuresRegistry.deliveryClaims,
			futuresRegistry.claims,
			futuresRegistry.refunds,
			futuresRegistry.operationErrors,
		)
	})
	return futuresRegistry
}

func (m *FuturesMetrics) IncCreated() {
	if m != nil {
		m.created.Inc()
	}
}

func (m *FuturesMetrics) IncDeposits() {
	if m != nil {
		m.deposits.Inc()
	}
}

func (m *FuturesMetrics) IncMints() {
	if m != nil {
		m.mints.Inc()
	}
}

func (m *FuturesMetrics) IncDeliveries() {
	if m != nil {
		m.deliveries.Inc()
	}
}

func (m *FuturesMetrics) IncDeliveryClaims() {
	if m != nil {
		m.deliveryClaims.Inc()
	}
}

func (m *FuturesMetrics) IncClaims() {
	if m != nil {
		m.claims.Inc()
	}
}

func (m *FuturesMetrics) IncRefunds() {
	if m != nil {
		m.refunds.Inc()
	}
}

func (m *FuturesMetrics) IncOperationError(op string) {
	if m != nil {
		m.operationErrors.WithLabelValues(op).Inc()
	}
}
