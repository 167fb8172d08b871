package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qc"

// Metrics holds the Prometheus counters, histograms, and gauges for check passes.
type Metrics struct {
	StatesChecked   *prometheus.CounterVec // labels: view
	Findings        *prometheus.CounterVec // labels: view, severity
	CheckFaults     *prometheus.CounterVec // labels: check
	ForecastSkipped prometheus.Counter

	PassDuration *prometheus.HistogramVec // labels: view
	LastPass     *prometheus.GaugeVec     // labels: view; unix seconds
}

func newMetrics() *Metrics {
	return &Metrics{
		StatesChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_checked_total",
			Help:      "States evaluated, by view.",
		}, []string{"view"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings recorded, by view and severity.",
		}, []string{"view", "severity"}),
		CheckFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_faults_total",
			Help:      "Checks that returned an error or panicked.",
		}, []string{"check"}),
		ForecastSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_skipped_total",
			Help:      "Trend forecasts skipped for insufficient history.",
		}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a full check pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"view"}),
		LastPass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time the last pass for a view completed.",
		}, []string{"view"}),
	}
}

// NewMetrics creates and registers all check metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StatesChecked,
		m.Findings,
		m.CheckFaults,
		m.ForecastSkipped,
		m.PassDuration,
		m.LastPass,
	}
}
