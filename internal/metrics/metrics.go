package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// job outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the transcription collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	segments prometheus.Counter
	inFlight prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidscribe",
			Name:      "jobs_total",
			Help:      "Transcription jobs by outcome and failure kind.",
		}, []string{"outcome", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidscribe",
			Name:      "job_duration_seconds",
			Help:      "Wall time from upload received to subtitle file written.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidscribe",
			Name:      "segments_written_total",
			Help:      "Subtitle entries written across all jobs.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vidscribe",
			Name:      "jobs_in_flight",
			Help:      "Jobs currently being transcribed.",
		}),
	}

	m.registry.MustRegister(
		m.jobs,
		m.duration,
		m.segments,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// JobStarted marks a job in flight and returns a func recording its end.
// kind is ignored for successful jobs.
func (m *Metrics) JobStarted() func(outcome, kind string) {
	if m == nil {
		return func(string, string) {}
	}
	start := time.Now()
	m.inFlight.Inc()
	return func(outcome, kind string) {
		m.inFlight.Dec()
		if outcome == OutcomeSuccess {
			kind = ""
		}
		m.jobs.WithLabelValues(outcome, kind).Inc()
		m.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) SegmentsWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.segments.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
