// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package metrics provides Prometheus metrics for the recommendation service.

Metrics are registered on the default registry at package init via promauto
and exposed by cmd/viewrec at /metrics:

	curl http://localhost:9464/metrics

# Available Metrics

Source Metrics:
  - viewrec_source_query_duration_seconds: DuckDB query time (histogram)
    Labels: operation (interactions, item_labels, count)
  - viewrec_source_query_errors_total: Failed queries (counter)
  - viewrec_source_breaker_state: 0=closed, 1=half-open, 2=open (gauge)

Training Metrics:
  - viewrec_training_runs_total: Attempts by result (counter)
  - viewrec_training_duration_seconds: Successful run time (histogram)
  - viewrec_model_version, viewrec_model_users, viewrec_model_items,
    viewrec_model_last_trained_timestamp (gauges)
  - viewrec_model_auc: Held-out AUC (gauge), Labels: ranker (model, popularity)

Ranking Metrics:
  - viewrec_rank_requests_total: Requests by result (counter)
  - viewrec_rank_duration_seconds: Request latency (histogram)
  - viewrec_rank_cache_hits_total, viewrec_rank_cache_misses_total (counters)

Event Metrics:
  - viewrec_events_{published,consumed,processed,deduplicated,rejected}_total
  - viewrec_event_processing_duration_seconds (histogram)
  - viewrec_retrain_checks_total: Labels: outcome (due, not_due, throttled, error)

# Engine Integration

Observer implements recommend.Observer so the engine reports training and
ranking without importing this package:

	engine, err := recommend.NewEngine(cfg, provider, logger,
	    recommend.WithObserver(metrics.Observer{}))
*/
package metrics
