package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "andbang_auth"

type metrics struct {
	decisions     *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconcile_decisions_total",
			Help:      "Guarded requests by credential reconciliation outcome.",
		}, []string{"decision"}),
		providerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_calls_total",
			Help:      "Outbound andbang calls by operation and result.",
		}, []string{"operation", "result"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_total",
			Help:      "Completed login callbacks by result.",
		}, []string{"result"}),
	}
}

func (m *metrics) observeCall(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerCalls.WithLabelValues(operation, result).Inc()
}
