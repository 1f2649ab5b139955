// Package metrics exposes the checkout core's prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersCreated   prometheus.Counter
	Payments        *prometheus.CounterVec
	SettlementTasks *prometheus.CounterVec
}

// New registers the checkout counters on the default registry.
func New() *Metrics {
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopmart",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created in Pending state.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopmart",
		Subsystem: "orders",
		Name:      "payments_total",
		Help:      "Payment attempts by terminal outcome.",
	}, []string{"outcome"})
	settlementTasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopmart",
		Subsystem: "settlement",
		Name:      "tasks_total",
		Help:      "Settlement task executions by kind and result.",
	}, []string{"kind", "result"})

	prometheus.MustRegister(ordersCreated, payments, settlementTasks)
	return &Metrics{
		OrdersCreated:   ordersCreated,
		Payments:        payments,
		SettlementTasks: settlementTasks,
	}
}

// OrderCreated is nil-safe so services can run without metrics in tests.
func (m *Metrics) OrderCreated() {
	if m != nil {
		m.OrdersCreated.Inc()
	}
}

func (m *Metrics) PaymentOutcome(outcome string) {
	if m != nil {
		m.Payments.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SettlementTask(kind, result string) {
	if m != nil {
		m.SettlementTasks.WithLabelValues(kind, result).Inc()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
