package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "signage"

// Metrics holds the Prometheus collectors for the signage backend. It
// satisfies weather.Recorder.
type Metrics struct {
	// Weather resolution.
	ProviderResults *prometheus.CounterVec // labels: provider, outcome={ok,empty,network,upstream,malformed,config_missing,unknown_area}
	CycleDuration   prometheus.Histogram
	StaleCycles     prometheus.Counter

	// Relays and pollers.
	RelayRequests *prometheus.CounterVec // labels: relay, code
	PollResults   *prometheus.CounterVec // labels: job, outcome={success,error}
}

func newCollectors() *Metrics {
	return &Metrics{
		ProviderResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_provider_results_total",
			Help:      "Fallback chain provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_cycle_duration_seconds",
			Help:      "Duration of a weather resolution cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StaleCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_stale_cycles_total",
			Help:      "Resolution cycles dropped because a newer cycle was already applied.",
		}),
		RelayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_requests_total",
			Help:      "Relay endpoint responses by relay and status code.",
		}, []string{"relay", "code"}),
		PollResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_results_total",
			Help:      "Background poll outcomes by job.",
		}, []string{"job", "outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.ProviderResults,
		m.CycleDuration,
		m.StaleCycles,
		m.RelayRequests,
		m.PollResults,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}

func (m *Metrics) ProviderResult(provider, outcome string) {
	m.ProviderResults.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) CycleCompleted(seconds float64, stale bool) {
	m.CycleDuration.Observe(seconds)
	if stale {
		m.StaleCycles.Inc()
	}
}

// RelayResult counts one relay response.
func (m *Metrics) RelayResult(relay string, code int) {
	m.RelayRequests.WithLabelValues(relay, strconv.Itoa(code)).Inc()
}

// PollResult counts one background poll.
func (m *Metrics) PollResult(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.PollResults.WithLabelValues(job, outcome).Inc()
}
