// Package metrics exposes Prometheus collectors for merge runs and the
// preview server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jobboard-cli/internal/resolve"
)

const namespace = "jobboard"

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Merge tracks the outcome of record-linkage runs.
type Merge struct {
	Sources    prometheus.Gauge
	Targets    prometheus.Gauge
	Accepted   prometheus.Gauge
	NearMisses prometheus.Gauge
	Ambiguous  prometheus.Gauge
	Runs       prometheus.Counter
	Scores     prometheus.Histogram
	Duration   prometheus.Histogram
}

// NewMerge registers the merge collectors on reg.
func NewMerge(reg prometheus.Registerer) *Merge {
	f := promauto.With(reg)
	return &Merge{
		Sources: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "merge", Name: "sources",
			Help: "Source records in the last merge run",
		}),
		Targets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "merge", Name: "targets",
			Help: "Target records in the last merge run",
		}),
		Accepted: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "merge", Name: "accepted",
			Help: "Source records accepted against a target",
		}),
		NearMisses: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "merge", Name: "near_misses",
			Help: "Source records scoring just below the threshold",
		}),
		Ambiguous: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "merge", Name: "ambiguous_targets",
			Help: "Targets claimed by more than one accepted source",
		}),
		Runs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "merge", Name: "runs_total",
			Help: "Completed merge runs",
		}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "merge", Name: "best_score",
			Help:    "Best candidate score per source record",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "merge", Name: "duration_seconds",
			Help:    "Wall time of a merge run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// ObserveRun records a completed run.
func (m *Merge) ObserveRun(res *resolve.Result, elapsed time.Duration) {
	s := res.Summary()
	m.Sources.Set(float64(s.Sources))
	m.Targets.Set(float64(s.Targets))
	m.Accepted.Set(float64(s.Accepted))
	m.NearMisses.Set(float64(s.NearMisses))
	m.Ambiguous.Set(float64(s.AmbiguousTargets))
	for _, c := range res.Candidates {
		m.Scores.Observe(c.Score)
	}
	m.Duration.Observe(elapsed.Seconds())
	m.Runs.Inc()
}

// WriteTextfile writes everything gathered by g in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return eris.Wrapf(prometheus.WriteToTextfile(path, g), "metrics: write %s", path)
}
