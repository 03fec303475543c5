package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	waiting        *prometheus.GaugeVec
	rotations      *prometheus.CounterVec
	promoted       *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	stale          prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	droppedJobs    *prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	return prometheusMetrics{
		waiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "court_queue_waiting_participants",
				Help: "Number of waiting participants per live session",
			}, []string{"session_id"}),
		rotations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_queue_rotations_total",
				Help: "Rotations that started a match, by team planning strategy",
			}, []string{"strategy"}),
		promoted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_queue_promoted_participants_total",
				Help: "Participants promoted onto a court, by team planning strategy",
			}, []string{"strategy"}),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_queue_skipped_participants_total",
				Help: "Waiting participants passed over by a rotation, by deny reason",
			}, []string{"reason"}),
		stale: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "court_queue_stale_participants_total",
				Help: "Stale participant notifications raised for organizer review",
			}),
		sessionsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_queue_sessions_closed_total",
				Help: "Closed queue sessions by close reason",
			}, []string{"reason"}),
		droppedJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_queue_dropped_jobs_total",
				Help: "Post-commit jobs dropped because the dispatch buffer was full",
			}, []string{"kind"}),
	}
}

func (m prometheusMetrics) SetWaiting(sessionID string, waiting int) {
	m.waiting.With(prometheus.Labels{"session_id": sessionID}).Set(float64(waiting))
}

func (m prometheusMetrics) DeleteSession(sessionID string) {
	m.waiting.Delete(prometheus.Labels{"session_id": sessionID})
}

func (m prometheusMetrics) AddRotation(strategy string, promoted int) {
	m.rotations.With(prometheus.Labels{"strategy": strategy}).Inc()
	m.promoted.With(prometheus.Labels{"strategy": strategy}).Add(float64(promoted))
}

func (m prometheusMetrics) AddSkipped(reason string, count int) {
	m.skipped.With(prometheus.Labels{"reason": reason}).Add(float64(count))
}

func (m prometheusMetrics) AddStale() {
	m.stale.Inc()
}

func (m prometheusMetrics) AddSessionClosed(reason string) {
	m.sessionsClosed.With(prometheus.Labels{"reason": reason}).Inc()
}

func (m prometheusMetrics) AddDroppedJob(kind string) {
	m.droppedJobs.With(prometheus.Labels{"kind": kind}).Inc()
}
