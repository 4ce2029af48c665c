// Package metrics provides Prometheus metrics for the podcast pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
	OutcomeCached   = "cached"
	OutcomeRetry    = "retry"
)

var (
	// StageRunsTotal counts stage executions by outcome.
	StageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podcaster",
			Name:      "stage_runs_total",
			Help:      "Total number of pipeline stage executions",
		},
		[]string{"stage", "outcome"},
	)

	// StageDuration measures how long a stage executor ran.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "podcaster",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stage executions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// TransportAttemptsTotal counts outbound call attempts.
	TransportAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podcaster",
			Name:      "transport_attempts_total",
			Help:      "Total number of outbound call attempts",
		},
		[]string{"target", "outcome"},
	)

	// ArtifactBytes observes artifact sizes at upload.
	ArtifactBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "podcaster",
			Name:      "artifact_bytes",
			Help:      "Size of stored artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"kind"},
	)
)

// RecordStage records a finished stage run.
func RecordStage(stage, outcome string, seconds float64) {
	StageRunsTotal.WithLabelValues(stage, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		StageDuration.WithLabelValues(stage).Observe(seconds)
	}
}

// RecordAttempt records one outbound attempt against target.
func RecordAttempt(target, outcome string) {
	TransportAttemptsTotal.WithLabelValues(target, outcome).Inc()
}

// RecordArtifact records the size of an uploaded artifact.
func RecordArtifact(kind string, size int) {
	ArtifactBytes.WithLabelValues(kind).Observe(float64(size))
}
