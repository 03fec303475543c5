package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type QueueMetrics interface {
	SetWaiting(sessionID string, waiting int)
	DeleteSession(sessionID string)
	AddRotation(strategy string, promoted int)
	AddSkipped(reason string, count int)
	AddStale()
	AddSessionClosed(reason string)
	AddDroppedJob(kind string)
}

func NewMetrics(registry *prometheus.Registry) QueueMetrics {
	return setupPrometheusMetrics(registry)
}

// Noop discards everything. Used when no registry is wired.
func Noop() QueueMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) SetWaiting(string, int)  {}
func (noopMetrics) DeleteSession(string)    {}
func (noopMetrics) AddRotation(string, int) {}
func (noopMetrics) AddSkipped(string, int)  {}
func (noopMetrics) AddStale()               {}
func (noopMetrics) AddSessionClosed(string) {}
func (noopMetrics) AddDroppedJob(string)    {}
