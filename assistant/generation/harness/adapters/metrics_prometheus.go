package adapters

import (
	"time"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports turn counters and latencies.
type PrometheusMetrics struct {
	turns     *prometheus.CounterVec
	fragments prometheus.Counter
	lockWait  prometheus.Histogram
	duration  *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Prompt turns by outcome.",
		}, []string{"outcome"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_stream_fragments_total",
			Help: "Completion fragments forwarded to the sink.",
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assistant_turn_lock_wait_seconds",
			Help:    "Time spent waiting for the turn lock.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "End-to-end turn latency by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.turns, m.fragments, m.lockWait, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveLockWait(d time.Duration) {
	m.lockWait.Observe(d.Seconds())
}

func (m *PrometheusMetrics) IncFragments() {
	m.fragments.Inc()
}

func (m *PrometheusMetrics) ObserveTurn(outcome string, d time.Duration) {
	m.turns.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

var _ ports.Metrics = (*PrometheusMetrics)(nil)
