// Package metrics records generation metrics with Prometheus and pushes them
// to a Pushgateway when a run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Namespace prefixes every metric name.
const Namespace = "ledgergen"

// Recorder collects per-table and per-phase metrics for one run.
type Recorder struct {
	registry *prometheus.Registry

	rowsInserted  *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	phaseDuration *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rows_inserted_total",
				Help:      "Total number of rows inserted per table",
			},
			[]string{"table"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "batches_total",
				Help:      "Total number of insert batches per table",
			},
			[]string{"table"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "batch_duration_seconds",
				Help:      "Insert batch latency per table",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"table"},
		),
		phaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "phase_duration_seconds",
				Help:      "Wall time of each generation phase in the last run",
			},
			[]string{"phase"},
		),
	}

	r.registry.MustRegister(r.rowsInserted, r.batches, r.batchDuration, r.phaseDuration)
	return r
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBatch records one inserted batch. Its signature matches
// datagen.FlushObserver.
func (r *Recorder) ObserveBatch(table string, rows int, elapsed time.Duration) {
	r.rowsInserted.WithLabelValues(table).Add(float64(rows))
	r.batches.WithLabelValues(table).Inc()
	r.batchDuration.WithLabelValues(table).Observe(elapsed.Seconds())
}

// ObservePhase records the duration of a generation phase.
func (r *Recorder) ObservePhase(phase string, elapsed time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Set(elapsed.Seconds())
}

// Push sends the collected metrics to the Pushgateway at url, grouped by
// job and run id.
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
