package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics container for the compiler and simulator.
type Metrics struct {
	// Compile-time metrics
	CompileOperationsTotal *prometheus.CounterVec
	CompileDuration        *prometheus.HistogramVec
	CompileIssuesTotal     *prometheus.HistogramVec
	NodeCountByKind        *prometheus.HistogramVec

	// Simulation metrics
	SimulationStepsTotal  *prometheus.CounterVec
	SimulationRunDuration *prometheus.HistogramVec
	NonFiniteValuesTotal  *prometheus.CounterVec
	StockClampEventsTotal prometheus.Counter

	// System metrics
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Service information
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initializes the metrics collectors under the given namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		CompileOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compile_operations_total",
				Help:      "Total number of compile() calls",
			},
			[]string{"status"},
		),

		CompileDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compile_duration_seconds",
				Help:      "Duration of compile() calls",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"status"},
		),

		CompileIssuesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compile_issues_total",
				Help:      "Number of node issues reported per compile() call",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"severity"},
		),

		NodeCountByKind: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "node_count",
				Help:      "Number of computed nodes in a compiled model, by kind",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 500, 1000},
			},
			[]string{"kind"},
		),

		SimulationStepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulation_steps_total",
				Help:      "Total number of simulation steps executed",
			},
			[]string{"solver"},
		),

		SimulationRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulation_run_duration_seconds",
				Help:      "Duration of Simulator.Run(n) calls",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"solver"},
		),

		NonFiniteValuesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "non_finite_values_total",
				Help:      "Total number of non-finite (NaN/Inf) values observed across all runs",
			},
			[]string{"solver"},
		),

		StockClampEventsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_clamp_events_total",
				Help:      "Total number of non-negativity clamp events across all stocks",
			},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Build information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics container, initializing it with defaults if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("sdsim", "")
	}
	return defaultMetrics
}

// RecordCompile records the outcome of a single compile() call.
func (m *Metrics) RecordCompile(success bool, duration time.Duration, errorCount, warningCount int) {
	status := "success"
	if !success {
		status = "error"
	}
	m.CompileOperationsTotal.WithLabelValues(status).Inc()
	m.CompileDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.CompileIssuesTotal.WithLabelValues("error").Observe(float64(errorCount))
	m.CompileIssuesTotal.WithLabelValues("warning").Observe(float64(warningCount))
}

// RecordNodeCounts records the size of a compiled model, broken down by node kind.
func (m *Metrics) RecordNodeCounts(stocks, flows, auxiliaries, graphical, delays int) {
	m.NodeCountByKind.WithLabelValues("stock").Observe(float64(stocks))
	m.NodeCountByKind.WithLabelValues("flow").Observe(float64(flows))
	m.NodeCountByKind.WithLabelValues("auxiliary").Observe(float64(auxiliaries))
	m.NodeCountByKind.WithLabelValues("graphical").Observe(float64(graphical))
	m.NodeCountByKind.WithLabelValues("delay").Observe(float64(delays))
}

// RecordRun records the outcome of a single Simulator.Run(n) call.
func (m *Metrics) RecordRun(solver string, duration time.Duration, steps, nonFinite int) {
	m.SimulationStepsTotal.WithLabelValues(solver).Add(float64(steps))
	m.SimulationRunDuration.WithLabelValues(solver).Observe(duration.Seconds())
	if nonFinite > 0 {
		m.NonFiniteValuesTotal.WithLabelValues(solver).Add(float64(nonFinite))
	}
}

// RecordClampEvent records a single non-negativity clamp event.
func (m *Metrics) RecordClampEvent() {
	m.StockClampEventsTotal.Inc()
}

// SetServiceInfo sets the build information gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts an HTTP server exposing /metrics and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
