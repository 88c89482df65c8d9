// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package main is the entry point for Viewrec.

Viewrec trains an implicit-feedback ALS model over user/item view counts
stored in DuckDB and serves top-N product recommendations from the latest
trained snapshot.

# Modes

Service mode (default) runs a suture v4 tree until SIGINT or SIGTERM:

	RootSupervisor ("viewrec")
	├── ModelSupervisor ("model-layer")
	│   └── RetrainService (restore, initial train, interval retrain)
	├── IngestSupervisor ("ingest-layer")
	│   └── EventConsumerService (events.enabled)
	└── TelemetrySupervisor ("telemetry-layer")
	    └── HTTPServerService (metrics.enabled)

One-shot mode (-once) trains a single model, writes the ranked lists as JSON
to stdout and exits. With -user only that user's list is written.

Component initialization order:

 1. Configuration: Koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog with JSON/console output modes
 3. Source: DuckDB interaction and item tables, optional CSV import
 4. Engine: snapshot store, breaker-protected data provider
 5. Events: watermill transport, consumer, retrain trigger, publisher
 6. Supervisor Tree: retrain loop, consumer, metrics listener

# Flags

	-config PATH        config file (default: CONFIG_PATH or ./config.yaml)
	-once               train once, print JSON, exit
	-user ID            with -once, only this user
	-n N                list length (0 uses ranking.default_n)
	-import-views PATH  load user_id,item_id[,signal] rows first
	-import-items PATH  load item_id,label rows first
	-publish U:I[:S]    publish an interaction after startup (repeatable)

# Configuration

Priority: environment variables > config file > defaults.

	VIEWREC_MODEL__RANK=32             # any key, "__" separates sections
	VIEWREC_TRAINING__INTERVAL=6h
	VIEWREC_EVENTS__ENABLED=true
	LOG_LEVEL=debug                    # short aliases
	DUCKDB_PATH=/var/lib/viewrec/views.duckdb
	SNAPSHOT_DIR=/var/lib/viewrec/snapshots
	NATS_URL=nats://localhost:4222
	METRICS_ADDR=:9464

# Build Tags

The NATS transport (external or embedded server) needs -tags nats; without
it events.transport must be "gochannel":

	go build -tags nats ./cmd/viewrec

# Examples

	viewrec -import-items items.csv -import-views views.csv -once -n 5
	viewrec -once -user alice
	viewrec -config /etc/viewrec/config.yaml
*/
package main
