// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/viewrec/internal/recommend"
)

var (
	// Source Metrics
	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viewrec_source_query_duration_seconds",
			Help:    "Duration of interaction source queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SourceQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewrec_source_query_errors_total",
			Help: "Total number of failed interaction source queries",
		},
		[]string{"operation"},
	)

	SourceBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "viewrec_source_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewrec_training_runs_total",
			Help: "Total number of training attempts",
		},
		[]string{"result"}, // "success", "insufficient_data", "in_progress", "error"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewrec_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewrec_model_version",
			Help: "Version of the currently published snapshot",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewrec_model_users",
			Help: "Number of users (matrix rows) in the current snapshot",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewrec_model_items",
			Help: "Number of items (matrix columns) in the current snapshot",
		},
	)

	ModelLastTrained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewrec_model_last_trained_timestamp",
			Help: "Unix timestamp of the current snapshot's training",
		},
	)

	ModelAUC = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "viewrec_model_auc",
			Help: "Mean held-out ROC-AUC of the current snapshot",
		},
		[]string{"ranker"}, // "model", "popularity"
	)

	// Ranking Metrics
	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewrec_rank_requests_total",
			Help: "Total number of ranking requests",
		},
		[]string{"result"}, // "ok", "not_ready", "unknown_user", "unknown_item", "error"
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewrec_rank_duration_seconds",
			Help:    "Duration of ranking requests in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	RankCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_rank_cache_hits_total",
			Help: "Total number of ranked lists served from cache",
		},
	)

	RankCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_rank_cache_misses_total",
			Help: "Total number of ranked lists computed",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_events_published_total",
			Help: "Total number of interaction events published",
		},
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_events_consumed_total",
			Help: "Total number of interaction events received",
		},
	)

	EventsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_events_processed_total",
			Help: "Total number of interaction events recorded",
		},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_events_deduplicated_total",
			Help: "Total number of redelivered events skipped",
		},
	)

	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewrec_events_rejected_total",
			Help: "Total number of undecodable or malformed events dropped",
		},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewrec_event_processing_duration_seconds",
			Help:    "Duration of interaction event handling in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	RetrainChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewrec_retrain_checks_total",
			Help: "Total number of retrain-due checks by outcome",
		},
		[]string{"outcome"}, // "due", "not_due", "throttled", "error"
	)
)

// RecordSourceQuery records an interaction source query.
func RecordSourceQuery(operation string, duration time.Duration, err error) {
	SourceQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		SourceQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordBreakerState records a circuit breaker transition.
func RecordBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	SourceBreakerState.WithLabelValues(name).Set(v)
}

// RecordTraining records the outcome of a training attempt.
func RecordTraining(duration time.Duration, err error) {
	TrainingRuns.WithLabelValues(trainingResult(err)).Inc()
	if err == nil {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// RecordSnapshot updates the model gauges from a published snapshot.
func RecordSnapshot(s *recommend.Snapshot) {
	if s == nil {
		return
	}
	ModelVersion.Set(float64(s.Version))
	ModelLastTrained.Set(float64(s.TrainedAt.Unix()))
	if s.Train != nil {
		users, items := s.Train.Dims()
		ModelUsers.Set(float64(users))
		ModelItems.Set(float64(items))
	}
	if s.Evaluation != nil && s.Evaluation.Users > 0 {
		ModelAUC.WithLabelValues("model").Set(s.Evaluation.ModelAUC)
		ModelAUC.WithLabelValues("popularity").Set(s.Evaluation.PopularityAUC)
	}
}

// RecordRank records a ranking request.
func RecordRank(duration time.Duration, cacheHit bool, err error) {
	RankRequests.WithLabelValues(rankResult(err)).Inc()
	RankDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	if cacheHit {
		RankCacheHits.Inc()
	} else {
		RankCacheMisses.Inc()
	}
}

// RecordEventPublished records an interaction event being published.
func RecordEventPublished() {
	EventsPublished.Inc()
}

// RecordEventConsumed records an interaction event being received.
func RecordEventConsumed() {
	EventsConsumed.Inc()
}

// RecordEventProcessed records an interaction event being recorded.
func RecordEventProcessed(duration time.Duration) {
	EventsProcessed.Inc()
	EventProcessingDuration.Observe(duration.Seconds())
}

// RecordEventDeduplicated records a redelivered event being skipped.
func RecordEventDeduplicated() {
	EventsDeduplicated.Inc()
}

// RecordEventRejected records a malformed event being dropped.
func RecordEventRejected() {
	EventsRejected.Inc()
}

// RecordRetrainCheck records a retrain-due check outcome.
func RecordRetrainCheck(outcome string) {
	RetrainChecks.WithLabelValues(outcome).Inc()
}

// Observer implements recommend.Observer on the package metrics.
type Observer struct{}

// TrainingFinished implements recommend.Observer.
func (Observer) TrainingFinished(duration time.Duration, err error) {
	RecordTraining(duration, err)
}

// SnapshotPublished implements recommend.Observer.
func (Observer) SnapshotPublished(s *recommend.Snapshot) {
	RecordSnapshot(s)
}

// Ranked implements recommend.Observer.
func (Observer) Ranked(duration time.Duration, cacheHit bool, err error) {
	RecordRank(duration, cacheHit, err)
}

func trainingResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, recommend.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, recommend.ErrTrainingInProgress):
		return "in_progress"
	default:
		return "error"
	}
}

func rankResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, recommend.ErrModelNotReady):
		return "not_ready"
	case errors.Is(err, recommend.ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, recommend.ErrUnknownItem):
		return "unknown_item"
	default:
		return "error"
	}
}
