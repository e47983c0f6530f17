package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Simulation metrics
	jobsTotal          *prometheus.CounterVec
	jobsActive         prometheus.Gauge
	simulationDuration prometheus.Histogram
	combinationsTotal  prometheus.Counter
	barsProcessed      prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),

		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweep_jobs_total",
				Help: "Total number of optimization jobs by terminal status",
			},
			[]string{"status"},
		),
		jobsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sweep_jobs_active",
				Help: "Number of optimization jobs currently running",
			},
		),
		simulationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sweep_simulation_duration_seconds",
				Help:    "Batch simulation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		combinationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sweep_combinations_total",
				Help: "Total number of parameter combinations simulated",
			},
		),
		barsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sweep_bars_processed_total",
				Help: "Total number of candle bars processed across all jobs",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)
	reg.MustRegister(r.jobsTotal)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.simulationDuration)
	reg.MustRegister(r.combinationsTotal)
	reg.MustRegister(r.barsProcessed)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() { r.httpRequestsInFlight.Inc() }

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() { r.httpRequestsInFlight.Dec() }

// JobStarted marks one job as running.
func (r *Registry) JobStarted() { r.jobsActive.Inc() }

// JobFinished records a job reaching a terminal status.
func (r *Registry) JobFinished(status string, seconds float64) {
	r.jobsActive.Dec()
	r.jobsTotal.WithLabelValues(status).Inc()
	r.simulationDuration.Observe(seconds)
}

// AddCombinations counts simulated combinations.
func (r *Registry) AddCombinations(n int) { r.combinationsTotal.Add(float64(n)) }

// AddBars counts processed candle bars.
func (r *Registry) AddBars(n int) { r.barsProcessed.Add(float64(n)) }
