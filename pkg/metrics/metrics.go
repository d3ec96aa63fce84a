// Package metrics provides Prometheus metrics for the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sttalk"

var (
	// RankRequestsTotal tracks ranking requests by result (ok, not_found, unavailable)
	RankRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "rank_requests_total",
			Help:      "Total number of candidate ranking requests by result",
		},
		[]string{"result"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "rank_duration_seconds",
			Help:      "Duration of candidate ranking in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// CandidatesReturned tracks how many candidates survive the threshold per request
	CandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "candidates_returned",
			Help:      "Number of candidates returned per ranking request",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	// MatchesCreatedTotal tracks created matches by source (request, auto) and initiator
	MatchesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "matches_created_total",
			Help:      "Total number of matches created",
		},
		[]string{"source", "initiator"},
	)

	DuplicateMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "duplicate_matches_total",
			Help:      "Total number of match creations rejected as duplicates",
		},
		[]string{"source"},
	)

	// TransitionsTotal tracks status transitions by outcome (ok, rejected)
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of match status transitions",
		},
		[]string{"from", "to", "outcome"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of match events published",
		},
		[]string{"event_type", "status"},
	)
)

func RecordRank(result string, durationSeconds float64, candidates int) {
	RankRequestsTotal.WithLabelValues(result).Inc()
	RankDuration.Observe(durationSeconds)
	if result == "ok" {
		CandidatesReturned.Observe(float64(candidates))
	}
}

func RecordMatchCreated(source, initiator string) {
	MatchesCreatedTotal.WithLabelValues(source, initiator).Inc()
}

func RecordDuplicateMatch(source string) {
	DuplicateMatchesTotal.WithLabelValues(source).Inc()
}

func RecordTransition(from, to, outcome string) {
	TransitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

func RecordEventPublished(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
