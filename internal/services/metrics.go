package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide observability counters. All of them are
// diagnostic only: they reset on restart and feed no correctness decision.
// The storage cleanup pair in particular replaces what used to be a bare
// global counter pair; the usage ledger in PostgreSQL stays authoritative.
type Metrics struct {
	CleanupSuccess prometheus.Counter
	CleanupFailure prometheus.Counter
	QuotaDenials   *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CleanupSuccess: factory.NewCounter(prometheus.CounterOpts{
			Name: "storage_cleanup_success_total",
			Help: "Object deletions that completed, including already-absent objects.",
		}),
		CleanupFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "storage_cleanup_failure_total",
			Help: "Object deletions that failed at the storage backend.",
		}),
		QuotaDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quota_denials_total",
			Help: "Requests denied because the monthly feature cap was reached.",
		}, []string{"feature"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Upstream provider failures by provider and class.",
		}, []string{"provider", "class"}),
	}
}
