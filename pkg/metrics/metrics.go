// Package metrics provides Prometheus instrumentation for Argus dispatches
// and operation invocations.
//
// Counters and histograms are registered once at package load through
// promauto. Recording is thread-safe and cheap enough to sit on the dispatch
// path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchesTotal counts CLI dispatches by outcome
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_dispatches_total",
			Help: "Total number of CLI dispatches by outcome",
		},
		[]string{"outcome"},
	)

	// OperationsTotal counts resolved operation invocations
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_operations_total",
			Help: "Total number of operation invocations by task, mode and status",
		},
		[]string{"task", "mode", "status"},
	)

	// OperationDuration observes wall-clock operation latency
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_operation_duration_seconds",
			Help:    "Operation duration in seconds by task and mode",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
		[]string{"task", "mode"},
	)

	// EpochsTotal counts completed training epochs
	EpochsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_training_epochs_total",
			Help: "Total number of completed training epochs by task",
		},
		[]string{"task"},
	)

	// CheckpointBytes observes written checkpoint sizes
	CheckpointBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "argus_checkpoint_bytes",
			Help:    "Size distribution of written checkpoints",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
)

// Timer measures a single operation and records its duration on Stop
type Timer struct {
	task  string
	mode  string
	start time.Time
}

// NewTimer starts a timer for a (task, mode) invocation
func NewTimer(task, mode string) *Timer {
	return &Timer{task: task, mode: mode, start: time.Now()}
}

// Stop records the elapsed duration and returns it
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	OperationDuration.WithLabelValues(t.task, t.mode).Observe(elapsed.Seconds())
	return elapsed
}
