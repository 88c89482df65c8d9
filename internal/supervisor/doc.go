// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package supervisor provides process supervision for Viewrec using suture v4.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("viewrec")
	├── ModelSupervisor ("model-layer")
	│   └── RetrainService
	├── IngestSupervisor ("ingest-layer")
	│   └── EventConsumerService (if events.enabled)
	└── TelemetrySupervisor ("telemetry-layer")
	    └── HTTPServerService (/metrics)

A consumer crash or a broker outage restarts only the ingest layer; the
engine keeps serving its current snapshot and the retrain loop keeps its
schedule.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
	    return err
	}

	tree.AddModelService(services.NewRetrainService(engine, retrainCfg, trigger.Due(), logger))
	tree.AddIngestService(services.NewEventConsumerService(consumer))
	tree.AddTelemetryService(services.NewHTTPServerService(metricsServer, 5*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Supervisor events (service failures, backoff, restarts) are logged through
sutureslog, which writes to zerolog via logging.SlogHandler.
*/
package supervisor
