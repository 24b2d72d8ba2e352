// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one extraction process. It
// implements the pipeline's Recorder.
type Metrics struct {
	registry *prometheus.Registry

	controlsDiscovered *prometheus.CounterVec
	controlsSkipped    *prometheus.CounterVec
	panelsResolved     *prometheus.CounterVec
	activationFailures prometheus.Counter
	recordsEmitted     prometheus.Counter

	recordsWritten *prometheus.CounterVec
	outputErrors   *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string            `yaml:"namespace" json:"namespace"`
	Subsystem       string            `yaml:"subsystem" json:"subsystem"`
	Labels          map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	EnableGoMetrics bool              `yaml:"enable_go_metrics" json:"enable_go_metrics"`
}

// NewMetrics creates collectors on a private registry.
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "faqscrapexter"
	}
	if config.Subsystem == "" {
		config.Subsystem = "pipeline"
	}

	reg := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	f := promauto.With(reg)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.Labels,
		}
	}

	return &Metrics{
		registry: reg,
		controlsDiscovered: f.NewCounterVec(
			opts("controls_discovered_total", "Question controls considered, by discovery pass"),
			[]string{"pass"},
		),
		controlsSkipped: f.NewCounterVec(
			opts("controls_skipped_total", "Question controls that produced no record, by reason"),
			[]string{"reason"},
		),
		panelsResolved: f.NewCounterVec(
			opts("panels_resolved_total", "Answer panels resolved, by strategy"),
			[]string{"strategy"},
		),
		activationFailures: f.NewCounter(
			opts("activation_failures_total", "Clicks on question controls that failed"),
		),
		recordsEmitted: f.NewCounter(
			opts("records_emitted_total", "Records produced by the pipeline"),
		),
		recordsWritten: f.NewCounterVec(
			opts("records_written_total", "Records persisted, by output format"),
			[]string{"format"},
		),
		outputErrors: f.NewCounterVec(
			opts("output_errors_total", "Output write failures, by output format"),
			[]string{"format"},
		),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "run_duration_seconds",
			Help:        "Wall-clock duration of extraction runs",
			ConstLabels: config.Labels,
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// ControlDiscovered records a control seen in pass.
func (m *Metrics) ControlDiscovered(pass string) {
	m.controlsDiscovered.WithLabelValues(pass).Inc()
}

// ControlSkipped records a control skipped for reason.
func (m *Metrics) ControlSkipped(reason string) {
	m.controlsSkipped.WithLabelValues(reason).Inc()
}

// PanelResolved records which strategy found a panel.
func (m *Metrics) PanelResolved(strategy string) {
	m.panelsResolved.WithLabelValues(strategy).Inc()
}

// ActivationFailed records a failed click.
func (m *Metrics) ActivationFailed() {
	m.activationFailures.Inc()
}

// RecordEmitted records a produced record.
func (m *Metrics) RecordEmitted() {
	m.recordsEmitted.Inc()
}

// RecordOutput records the result of writing n records to format.
func (m *Metrics) RecordOutput(format string, n int, err error) {
	if err != nil {
		m.outputErrors.WithLabelValues(format).Inc()
		return
	}
	m.recordsWritten.WithLabelValues(format).Add(float64(n))
}

// ObserveRun records the duration of a finished run.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
