package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "companion_supervisor"

// PrometheusCollector implements Collector using Prometheus metrics
type PrometheusCollector struct {
	pathResolutions      *prometheus.CounterVec
	launches             *prometheus.CounterVec
	launchDuration       *prometheus.HistogramVec
	terminations         *prometheus.CounterVec
	companionUp          prometheus.Gauge
	lifecycleTransitions *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	pc := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
	}

	pc.pathResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_resolutions_total",
			Help:      "Companion entry path resolutions by deployment mode and result",
		},
		[]string{"mode", "result"},
	)

	pc.launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Companion launch attempts by result",
		},
		[]string{"result"},
	)

	pc.launchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "launch_duration_seconds",
			Help:      "Time spent spawning the companion process",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"result"},
	)

	pc.terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminations_total",
			Help:      "Shutdown trigger invocations by outcome",
		},
		[]string{"outcome"},
	)

	pc.companionUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "companion_up",
			Help:      "1 while a companion process handle is held, 0 otherwise",
		},
	)

	pc.lifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Supervisor lifecycle state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	pc.registry.MustRegister(
		pc.pathResolutions,
		pc.launches,
		pc.launchDuration,
		pc.terminations,
		pc.companionUp,
		pc.lifecycleTransitions,
	)

	return pc
}

func (pc *PrometheusCollector) PathResolution(mode string, err error) {
	pc.pathResolutions.WithLabelValues(mode, resultLabel(err)).Inc()
}

func (pc *PrometheusCollector) LaunchAttempt(duration time.Duration, err error) {
	result := resultLabel(err)
	pc.launches.WithLabelValues(result).Inc()
	pc.launchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) Termination(outcome string) {
	pc.terminations.WithLabelValues(outcome).Inc()
}

func (pc *PrometheusCollector) CompanionUp(up bool) {
	if up {
		pc.companionUp.Set(1)
	} else {
		pc.companionUp.Set(0)
	}
}

func (pc *PrometheusCollector) LifecycleTransition(from, to string) {
	pc.lifecycleTransitions.WithLabelValues(from, to).Inc()
}

// Registry returns the Prometheus registry for HTTP handler setup
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

// Handler serves the collector's registry in the Prometheus exposition format
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}

var _ Collector = (*PrometheusCollector)(nil)
