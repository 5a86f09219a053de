// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Gateway metrics
	AttestationsApplied  prometheus.Counter
	AttestationsRejected *prometheus.CounterVec
	DiscountsUpserted    prometheus.Counter

	// Fee engine metrics
	SwapsProcessed    *prometheus.CounterVec
	FeesComputed      prometheus.Counter
	ProtocolCutsTaken prometheus.Counter
	NotifyFailures    *prometheus.CounterVec

	// Ingestion metrics
	EventsIngested   prometheus.Counter
	IngestionErrors  prometheus.Counter
	HighestBlockSeen prometheus.Gauge

	// Prover metrics
	BatchesBuilt     prometheus.Counter
	BatchBuildErrors prometheus.Counter
	AggregationTime  prometheus.Histogram

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "univip"
	}

	return &Metrics{
		AttestationsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attestations_applied_total",
			Help:      "Total number of attestations applied",
		}),
		AttestationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attestations_rejected_total",
			Help:      "Total number of attestations rejected by reason",
		}, []string{"reason"}),
		DiscountsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "discounts_upserted_total",
			Help:      "Total number of discount upserts",
		}),
		SwapsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hook",
			Name:      "swaps_processed_total",
			Help:      "Total number of swaps processed by direction",
		}, []string{"direction"}),
		FeesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hook",
			Name:      "fees_computed_total",
			Help:      "Total number of swap fee computations",
		}),
		ProtocolCutsTaken: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hook",
			Name:      "protocol_cuts_total",
			Help:      "Total number of non-zero protocol cuts extracted",
		}),
		NotifyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hook",
			Name:      "notify_failures_total",
			Help:      "Total number of best-effort collaborator notification failures",
		}, []string{"collaborator"}),
		EventsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_ingested_total",
			Help:      "Total number of ledger event records archived",
		}),
		IngestionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors",
		}),
		HighestBlockSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_block_seen",
			Help:      "Highest block number observed",
		}),
		BatchesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "batches_built_total",
			Help:      "Total number of aggregation batches built",
		}),
		BatchBuildErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "batch_build_errors_total",
			Help:      "Total number of batch build failures",
		}),
		AggregationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "aggregation_seconds",
			Help:      "Time spent in one full aggregation pass",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAttestationApplied increments the applied attestations counter.
func RecordAttestationApplied(users int) {
	DefaultMetrics.AttestationsApplied.Inc()
	DefaultMetrics.DiscountsUpserted.Add(float64(users))
}

// RecordAttestationRejected increments the rejected attestations counter.
func RecordAttestationRejected(reason string) {
	DefaultMetrics.AttestationsRejected.WithLabelValues(reason).Inc()
}

// RecordSwap increments the processed swaps counter.
func RecordSwap(exactInput bool) {
	direction := "exact_output"
	if exactInput {
		direction = "exact_input"
	}
	DefaultMetrics.SwapsProcessed.WithLabelValues(direction).Inc()
	DefaultMetrics.FeesComputed.Inc()
}

// RecordProtocolCut increments the protocol cut counter.
func RecordProtocolCut() {
	DefaultMetrics.ProtocolCutsTaken.Inc()
}

// RecordNotifyFailure increments the best-effort notification failure counter.
func RecordNotifyFailure(collaborator string) {
	DefaultMetrics.NotifyFailures.WithLabelValues(collaborator).Inc()
}

// RecordEventsIngested adds to the ingested events counter.
func RecordEventsIngested(n int, highestBlock uint64) {
	DefaultMetrics.EventsIngested.Add(float64(n))
	DefaultMetrics.HighestBlockSeen.Set(float64(highestBlock))
}

// RecordIngestionError increments the ingestion error counter.
func RecordIngestionError() {
	DefaultMetrics.IngestionErrors.Inc()
}
