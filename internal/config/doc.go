// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package config provides layered configuration loading for Viewrec.

Configuration is assembled with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (structs provider over defaultConfig)
 2. An optional YAML file: the path given to LoadFile, else CONFIG_PATH,
    else the first of config.yaml, config.yml, /etc/viewrec/config.yaml
 3. Environment variables

# Sections

  - logging: level, format, caller, timestamp
  - source: DuckDB path, views/items table names, query timeout, breaker
  - store: badger snapshot directory and retained versions
  - model: ALS rank, regularization, alpha, iterations, workers, seed
  - split: held-out fraction and seed
  - ranking: default_n, max_n, label_policy (omit or strict)
  - training: restore/train on startup, interval, min_interactions, timeout
  - cache: ranked-list cache enabled, ttl, max_entries
  - events: transport (gochannel or nats), topic, NATS settings, retrain
    trigger rate limit, dedupe window
  - metrics: Prometheus listener address and path
  - supervisor: suture failure threshold, decay, backoff, shutdown timeout

# Environment Variables

Any key can be set with the VIEWREC_ prefix, using a double underscore
between nesting levels:

	VIEWREC_MODEL__RANK=32
	VIEWREC_EVENTS__TRANSPORT=nats
	VIEWREC_TRAINING__INTERVAL=6h

A few conventional names are accepted as aliases: LOG_LEVEL, LOG_FORMAT,
DUCKDB_PATH, SNAPSHOT_DIR, NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR and
METRICS_ADDR. Other variables are ignored.

# Validation

Validate runs go-playground/validator struct tags (errors name the koanf
key, e.g. "events.topic is required") and then the cross-field checks
owned by the source, recommend and events packages.

# Usage

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
	    return err
	}
	engine, err := recommend.NewEngine(cfg.ToEngineConfig(), provider, logger)
*/
package config
