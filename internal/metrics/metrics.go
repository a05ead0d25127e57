// Package metrics exposes engine activity as Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vytor/soonerbadges/internal/models"
)

const namespace = "soonerbadges"

// Recorder implements badges.Recorder on a private registry.
type Recorder struct {
	registry           *prometheus.Registry
	eventsProcessed    *prometheus.CounterVec
	badgesAwarded      *prometheus.CounterVec
	requirementFailure *prometheus.CounterVec
}

// New registers the engine counters plus the Go and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events applied to player stats, by event kind.",
		}, []string{"kind"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Badges newly awarded, by badge id.",
		}, []string{"badge"}),
		requirementFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requirement_failures_total",
			Help:      "Requirement evaluations that errored or panicked, by badge id.",
		}, []string{"badge"}),
	}
	r.registry.MustRegister(
		r.eventsProcessed,
		r.badgesAwarded,
		r.requirementFailure,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) EventProcessed(kind models.EventKind) {
	r.eventsProcessed.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) BadgeAwarded(badgeID string) {
	r.badgesAwarded.WithLabelValues(badgeID).Inc()
}

func (r *Recorder) RequirementFailed(badgeID string) {
	r.requirementFailure.WithLabelValues(badgeID).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
