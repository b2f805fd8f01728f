// Package metrics provides observability for the matching engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching module.
type Metrics struct {
	// Candidate search latencies by side ("donors" or "requests")
	SearchLatency *prometheus.HistogramVec

	// Candidates excluded during a search, by side and reason
	Exclusions *prometheus.CounterVec

	// Candidates surviving a search, by side
	Candidates *prometheus.HistogramVec
}

// New creates a new Metrics instance with all matching module metrics registered.
func New() *Metrics {
	return &Metrics{
		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifeline_matching_search_duration_seconds",
			Help:    "Duration of candidate searches by side",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"side"}),

		Exclusions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_matching_exclusions_total",
			Help: "Candidates excluded during matching by side and reason",
		}, []string{"side", "reason"}), // reason: "already_responded", "ineligible"

		Candidates: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifeline_matching_candidates",
			Help:    "Number of candidates surviving a search by side",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"side"}),
	}
}

// ObserveSearch records the duration and result size of one search.
func (m *Metrics) ObserveSearch(side string, d time.Duration, candidates int) {
	if m != nil {
		m.SearchLatency.WithLabelValues(side).Observe(d.Seconds())
		m.Candidates.WithLabelValues(side).Observe(float64(candidates))
	}
}

// IncrementExclusion records an excluded candidate.
func (m *Metrics) IncrementExclusion(side, reason string) {
	if m != nil {
		m.Exclusions.WithLabelValues(side, reason).Inc()
	}
}
