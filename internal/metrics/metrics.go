// Package metrics provides Prometheus metrics for the ETL pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "spotify_etl"

var (
	// RunsTotal counts stage runs by stage and status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of stage runs by status",
		},
		[]string{"stage", "status"},
	)

	// RunDuration tracks stage run duration in seconds.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of stage runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// SnapshotsExtracted counts raw snapshots written.
	SnapshotsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "snapshots_total",
			Help:      "Total number of raw snapshots written",
		},
	)

	// SnapshotsNormalized counts snapshots turned into tables.
	SnapshotsNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "snapshots_total",
			Help:      "Total number of snapshots normalized",
		},
	)

	// RowsDerived counts table rows written by the normalizer.
	RowsDerived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "rows_total",
			Help:      "Total number of table rows derived",
		},
		[]string{"table"},
	)

	// RelocationFailures counts relocation steps that did not complete,
	// labelled by the failed step.
	RelocationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "relocation_failures_total",
			Help:      "Total number of relocation steps that did not complete",
		},
		[]string{"reason"},
	)

	// SnapshotsVanished counts snapshots already relocated by a concurrent run.
	SnapshotsVanished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "snapshots_vanished_total",
			Help:      "Total number of snapshots gone from pending before relocation",
		},
	)

	// RowsLoaded counts rows copied into the warehouse.
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "rows_total",
			Help:      "Total number of rows loaded into the warehouse",
		},
		[]string{"table"},
	)
)

// Push sends the default registry's metrics to a Prometheus Pushgateway
// under job. Batch commands call it before exiting.
func Push(gatewayURL, job string) error {
	err := push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
