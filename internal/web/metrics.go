package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ tasks.Busy = (*Metrics)(nil)

// Metrics records generation cycles on a dedicated registry.
//
// It also implements [tasks.Busy], exposing in-flight external calls as a gauge.
type Metrics struct {
	registry *prometheus.Registry
	cycles   *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight *prometheus.GaugeVec
}

// NewMetrics registers the playgen collectors on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playgen",
			Name:      "cycles_total",
			Help:      "Generation cycles by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "playgen",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of generation cycles.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "playgen",
			Name:      "in_flight",
			Help:      "External calls currently in flight, by step.",
		}, []string{"step"}),
	}

	m.registry.MustRegister(m.cycles, m.duration, m.inFlight)
	return m
}

// Acquire increments the in-flight gauge for label until the returned func is called.
func (m *Metrics) Acquire(label string) func() {
	g := m.inFlight.WithLabelValues(label)
	g.Inc()
	return g.Dec
}

// Observe records the outcome and duration of a finished cycle.
func (m *Metrics) Observe(result *tasks.GenerationResult) {
	if result == nil {
		return
	}
	m.cycles.WithLabelValues(Outcome(result.Err)).Inc()
	m.duration.Observe(result.Duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels err for the cycles counter.
func Outcome(err error) string {
	var (
		malformed *tasks.MalformedCompletionError
		notFound  *tasks.TrackNotFoundError
		creation  *tasks.PlaylistCreationError
	)

	switch {
	case err == nil:
		return "success"
	case errors.Is(err, shared.ErrAuthentication):
		return "authentication"
	case errors.As(err, &malformed):
		return "malformed_completion"
	case errors.As(err, &notFound):
		return "track_not_found"
	case errors.As(err, &creation):
		return "playlist_creation"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
