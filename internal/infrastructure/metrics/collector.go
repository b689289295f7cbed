package metrics

import (
	"net/http"
	"time"

	"qutebrowser-agent/internal/application/port/output"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ output.MetricsPort = (*Collector)(nil)

const namespace = "agent"

// Collector owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Collector struct {
	registry *prometheus.Registry

	planRequests   *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
	commands       *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runIterations  prometheus.Histogram
	activeSessions prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		planRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_requests_total",
				Help:      "Plan requests sent to the model, by provider and outcome.",
			},
			[]string{"provider", "status"},
		),
		planDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_request_duration_seconds",
				Help:      "Latency of plan requests.",
				Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
			},
			[]string{"provider"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Browser commands by delivery outcome.",
			},
			[]string{"outcome"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Agent loop runs by outcome (finished, exhausted, error).",
			},
			[]string{"outcome"},
		),
		runIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_iterations",
				Help:      "Plan iterations used per run.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Sessions currently held in memory.",
			},
		),
	}

	c.registry.MustRegister(
		c.planRequests,
		c.planDuration,
		c.commands,
		c.runs,
		c.runIterations,
		c.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) ObservePlanRequest(provider, status string, duration time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	c.planRequests.WithLabelValues(provider, status).Inc()
	c.planDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (c *Collector) ObserveCommand(outcome string) {
	c.commands.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRun(outcome string, iterations int) {
	c.runs.WithLabelValues(outcome).Inc()
	c.runIterations.Observe(float64(iterations))
}

func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ output.MetricsPort = Nop{}

// Nop discards all observations.
type Nop struct{}

func (Nop) ObservePlanRequest(provider, status string, duration time.Duration) {}
func (Nop) ObserveCommand(outcome string) {}
func (Nop) ObserveRun(outcome string, iterations int) {}
func (Nop) SetActiveSessions(n int) {}
