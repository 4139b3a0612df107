// Package metrics records per-run counters on a private Prometheus registry
// and writes them out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/roach88/tabletools/internal/batch"
)

const namespace = "tabletools"

// Routine labels.
const (
	RoutineDeltas = "deltas"
	RoutineDedupe = "dedupe"
	RoutineImport = "import"
)

// Recorder holds the metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	recordsLoaded  *prometheus.CounterVec
	updatesWritten *prometheus.CounterVec
	chunksWritten  *prometheus.CounterVec
	chunkFailures  *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		recordsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Records read from the table",
		}, []string{"routine"}),
		updatesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_written_total",
			Help:      "Record updates persisted",
		}, []string{"routine"}),
		chunksWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_written_total",
			Help:      "Write chunks persisted",
		}, []string{"routine"}),
		chunkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Write chunks that failed",
		}, []string{"routine"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a routine run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"routine"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordsLoaded adds n loaded records.
func (r *Recorder) RecordsLoaded(routine string, n int) {
	r.recordsLoaded.WithLabelValues(routine).Add(float64(n))
}

// ChunkObserver returns a batch observer that counts chunks and updates.
func (r *Recorder) ChunkObserver(routine string) func(batch.ChunkEvent) {
	return func(e batch.ChunkEvent) {
		if e.Err != nil {
			r.chunkFailures.WithLabelValues(routine).Inc()
			return
		}
		r.chunksWritten.WithLabelValues(routine).Inc()
		r.updatesWritten.WithLabelValues(routine).Add(float64(e.Size))
	}
}

// ObserveRun records the duration of a run that started at start.
func (r *Recorder) ObserveRun(routine string, start time.Time) {
	r.runDuration.WithLabelValues(routine).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every metric to path, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Value returns the current value of a counter, or the sample count of a
// histogram, for the given routine. Unknown series read as zero.
func (r *Recorder) Value(name, routine string) (float64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return 0, fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "routine") != routine {
				continue
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				return m.GetCounter().GetValue(), nil
			case dto.MetricType_HISTOGRAM:
				return float64(m.GetHistogram().GetSampleCount()), nil
			}
		}
	}
	return 0, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
