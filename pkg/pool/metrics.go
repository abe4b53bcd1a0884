package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the connection pool manager.
type Metrics struct {
	PoolConstructionsTotal *prometheus.CounterVec
	PoolEvictionsTotal     *prometheus.CounterVec
	ProbeFailuresTotal     *prometheus.CounterVec
	ProvisionsTotal        *prometheus.CounterVec
	ProvisionErrorsTotal   *prometheus.CounterVec
	HandlesActive          prometheus.Gauge
	HandlesLive            prometheus.Gauge
}

// NewMetrics creates and registers pool metrics on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		PoolConstructionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_pool_constructions_total",
				Help: "Total number of tenant connection pools constructed",
			},
			[]string{"tenant"},
		),
		PoolEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_pool_evictions_total",
				Help: "Total number of tenant handles evicted from the cache",
			},
			[]string{"tenant"},
		),
		ProbeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_pool_probe_failures_total",
				Help: "Total number of failed liveness probes",
			},
			[]string{"tenant"},
		),
		ProvisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_pool_provisions_total",
				Help: "Total number of schema provisioning runs",
			},
			[]string{"tenant"},
		),
		ProvisionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_pool_provision_errors_total",
				Help: "Total number of schema provisioning failures",
			},
			[]string{"tenant"},
		),
		HandlesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quill_pool_handles_active",
				Help: "Number of tenant handles currently cached",
			},
		),
		HandlesLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quill_pool_handles_live",
				Help: "Number of cached handles that passed the last liveness sweep",
			},
		),
	}

	registry.MustRegister(
		m.PoolConstructionsTotal,
		m.PoolEvictionsTotal,
		m.ProbeFailuresTotal,
		m.ProvisionsTotal,
		m.ProvisionErrorsTotal,
		m.HandlesActive,
		m.HandlesLive,
	)
	return m
}
