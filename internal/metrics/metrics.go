// Package metrics implements the Stats observability sink the data-layer
// supplier contract's stats() collaborator exposes, following the
// teacher's promauto-grouped-by-subsystem pattern.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stats is the reader's observability sink: counters and timers for schema
// builds, replica planning, and fetch/coordination outcomes.
type Stats struct {
	SchemaBuildsTotal    prometheus.Counter
	SchemaBuildFailures  *prometheus.CounterVec
	SchemaBuildDuration  prometheus.Histogram

	ReplicaPlansTotal      prometheus.Counter
	ReplicaPlanFailures    *prometheus.CounterVec
	NotEnoughReplicasTotal prometheus.Counter

	FetchesTotal       *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	FailoversTotal     prometheus.Counter
	ReadFailuresTotal  prometheus.Counter
	CancellationsTotal prometheus.Counter

	ExecutorQueueDepth prometheus.Gauge
	ExecutorActive     prometheus.Gauge
}

// NewStats creates and registers all Prometheus metrics for one reader job,
// following NewMetrics' ConstLabels-per-instance pattern.
func NewStats(jobID string) *Stats {
	labels := prometheus.Labels{"job_id": jobID}

	return &Stats{
		SchemaBuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "schema",
			Name: "builds_total", Help: "Total number of schema builds attempted",
			ConstLabels: labels,
		}),
		SchemaBuildFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "schema",
			Name: "build_failures_total", Help: "Schema build failures by error kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		SchemaBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bulkreader", Subsystem: "schema",
			Name: "build_duration_seconds", Help: "Schema build duration",
			ConstLabels: labels, Buckets: prometheus.DefBuckets,
		}),

		ReplicaPlansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "planner",
			Name: "plans_total", Help: "Total number of replica plans produced",
			ConstLabels: labels,
		}),
		ReplicaPlanFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "planner",
			Name: "plan_failures_total", Help: "Replica plan failures by error kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		NotEnoughReplicasTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "planner",
			Name: "not_enough_replicas_total", Help: "Plans that failed NotEnoughReplicas",
			ConstLabels: labels,
		}),

		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "fetch",
			Name: "total", Help: "Per-replica fetch attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bulkreader", Subsystem: "fetch",
			Name: "duration_seconds", Help: "Per-replica fetch duration",
			ConstLabels: labels, Buckets: prometheus.DefBuckets,
		}),
		FailoversTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "coordinator",
			Name: "failovers_total", Help: "Total number of backup promotions",
			ConstLabels: labels,
		}),
		ReadFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "coordinator",
			Name: "read_failures_total", Help: "Total partitions that ended in ReadFailure",
			ConstLabels: labels,
		}),
		CancellationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bulkreader", Subsystem: "coordinator",
			Name: "cancellations_total", Help: "Total partitions cancelled by the caller",
			ConstLabels: labels,
		}),

		ExecutorQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "bulkreader", Subsystem: "executor",
			Name: "queue_depth", Help: "Current executor task queue depth",
			ConstLabels: labels,
		}),
		ExecutorActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "bulkreader", Subsystem: "executor",
			Name: "active_workers", Help: "Current number of busy executor workers",
			ConstLabels: labels,
		}),
	}
}

// ObserveFetch records a per-replica fetch outcome and its duration.
func (s *Stats) ObserveFetch(outcome string, d time.Duration) {
	s.FetchesTotal.WithLabelValues(outcome).Inc()
	s.FetchDuration.Observe(d.Seconds())
}
