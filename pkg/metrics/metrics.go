// Package metrics records Prometheus metrics for a parse run and writes them
// in node_exporter textfile-collector format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/parser"
)

// Namespace prefixes every metric name.
const Namespace = "gridstat"

// Recorder collects run metrics. It implements collector.Observer.
type Recorder struct {
	registry *prometheus.Registry

	comments      prometheus.Counter
	records       *prometheus.CounterVec
	bytes         *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	throughput    *prometheus.HistogramVec
	lines         *prometheus.GaugeVec
	lastRunTime   prometheus.Gauge
	lastRunResult prometheus.Gauge
}

var _ collector.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "comment_lines_total",
			Help:      "Comment lines seen in the transfer logs.",
		}),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transfers_total",
				Help:      "Accepted transfer records.",
			},
			[]string{"destination", "type"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transferred_bytes_total",
				Help:      "Bytes moved by accepted transfers.",
			},
			[]string{"destination"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "skipped_lines_total",
				Help:      "Transfer lines skipped because they could not be parsed.",
			},
			[]string{"reason"},
		),
		throughput: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "throughput_gbps",
				Help:      "Per-transfer throughput in gigabits per second.",
				Buckets:   prometheus.ExponentialBuckets(0.125, 2, 10), // 0.125 to 64 Gbps
			},
			[]string{"destination"},
		),
		lines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "lines",
				Help:      "Lines read in the last run by classification.",
			},
			[]string{"outcome"},
		),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		}),
		lastRunResult: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run skipped no lines, 0 otherwise.",
		}),
	}

	r.registry.MustRegister(
		r.comments,
		r.records,
		r.bytes,
		r.skipped,
		r.throughput,
		r.lines,
		r.lastRunTime,
		r.lastRunResult,
	)

	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// OnComment counts a comment line.
func (r *Recorder) OnComment(*parser.LogLine, string) {
	r.comments.Inc()
}

// OnRecord counts an accepted transfer and observes its throughput.
func (r *Recorder) OnRecord(_ *parser.LogLine, rec *parser.TransferRecord) {
	r.records.WithLabelValues(rec.Destination, rec.Type).Inc()
	r.bytes.WithLabelValues(rec.Destination).Add(rec.Bytes)
	r.throughput.WithLabelValues(rec.Destination).Observe(rec.ThroughputGbps)
}

// OnSkip counts a skipped line by reason.
func (r *Recorder) OnSkip(lineErr *collector.LineError) {
	r.skipped.WithLabelValues(lineErr.Reason).Inc()
}

// ObserveResult records the per-outcome line counts and completion of a run.
func (r *Recorder) ObserveResult(result *collector.Result) {
	s := result.Stats
	for outcome, n := range map[string]int{
		string(parser.OutcomeBlank):          s.Blank,
		string(parser.OutcomeComment):        s.Comments,
		string(parser.OutcomeIgnored):        s.Ignored,
		string(parser.OutcomeExcluded):       s.Excluded,
		string(parser.OutcomeBelowThreshold): s.BelowThreshold,
		string(parser.OutcomeRecord):         s.Records,
		"malformed":                          s.Malformed,
	} {
		r.lines.WithLabelValues(outcome).Set(float64(n))
	}

	r.lastRunTime.Set(float64(result.EndTime.Unix()))
	if len(result.Skipped) == 0 {
		r.lastRunResult.Set(1)
	} else {
		r.lastRunResult.Set(0)
	}
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
