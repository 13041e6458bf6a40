package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the client.
type Metrics struct {
	SessionPhase       *prometheus.GaugeVec
	TurnsTotal         *prometheus.CounterVec
	VADStops           *prometheus.CounterVec
	ControlEvents      *prometheus.CounterVec
	TeardownErrors     prometheus.Counter
	PresenceWarnings   prometheus.Counter
	TranscribeLatency  prometheus.Histogram
	PromptPlayFailures prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the instruments on an explicit registerer; tests
// pass a fresh registry so repeated construction never collides.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionPhase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_phase",
			Help:      "Current session phase (1 for the active phase, 0 otherwise).",
		}, []string{"phase"}),
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed answer turns by outcome.",
		}, []string{"outcome"}),
		VADStops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vad_stops_total",
			Help:      "Voice-activity stop requests by reason.",
		}, []string{"reason"}),
		ControlEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_events_total",
			Help:      "Control-connection events by direction and type.",
		}, []string{"direction", "event"}),
		TeardownErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardown_errors_total",
			Help:      "Errors swallowed during best-effort session teardown.",
		}),
		PresenceWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_warnings_total",
			Help:      "Times the camera presence warning armed.",
		}),
		TranscribeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_latency_ms",
			Help:      "Latency of answer transcription requests in milliseconds.",
			Buckets:   []float64{200, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
		PromptPlayFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_play_failures_total",
			Help:      "Prompt playback attempts that resolved with an error.",
		}),
	}
}

// SetPhase marks one phase active and clears the previous one.
func (m *Metrics) SetPhase(prev, next string) {
	if prev != "" {
		m.SessionPhase.WithLabelValues(prev).Set(0)
	}
	if next != "" {
		m.SessionPhase.WithLabelValues(next).Set(1)
	}
}

func (m *Metrics) ObserveTranscribeLatency(d time.Duration) {
	m.TranscribeLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
