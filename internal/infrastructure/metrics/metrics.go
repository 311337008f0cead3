package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Import metrics
	ImportsTotal          *prometheus.CounterVec
	ImportRows            *prometheus.CounterVec
	ImportDuration        prometheus.Histogram
	BatchPersistFailures  prometheus.Counter
	DivergenceAmount      prometheus.Histogram
	BalanceLookupDuration prometheus.Histogram

	// Lock metrics
	ImportLockConflicts prometheus.Counter

	// Outbox metrics
	OutboxEventsPublished *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them on reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Import metrics
		ImportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerimport_imports_total",
				Help: "Total number of imports by final status",
			},
			[]string{"status"},
		),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerimport_rows_total",
				Help: "Imported rows by reconciliation outcome",
			},
			[]string{"outcome"},
		),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerimport_import_duration_seconds",
			Help:    "Duration of a whole import",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		BatchPersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerimport_batch_persist_failures_total",
			Help: "Row batches whose upsert failed",
		}),
		DivergenceAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerimport_divergence_amount",
			Help:    "Absolute difference between CSV and webhook net values",
			Buckets: []float64{0.1, 1, 10, 100, 1000, 10000},
		}),
		BalanceLookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerimport_balance_lookup_duration_seconds",
			Help:    "Duration of the external balance lookup",
			Buckets: prometheus.DefBuckets,
		}),

		// Lock metrics
		ImportLockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerimport_import_lock_conflicts_total",
			Help: "Imports rejected because the project was already importing",
		}),

		// Outbox metrics
		OutboxEventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerimport_outbox_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerimport_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerimport_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
