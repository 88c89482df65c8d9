// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package services provides suture.Service wrappers for Viewrec components.

Each wrapper implements suture.Service and fmt.Stringer:

  - RetrainService: restores or trains the engine at startup, then retrains
    on a fixed interval and whenever the event trigger reports a retrain
    boundary. Training failures are logged and the previous snapshot keeps
    serving.
  - EventConsumerService: runs an events.Consumer; a broken subscription
    returns an error so the supervisor restarts it with backoff.
  - HTTPServerService: runs the Prometheus /metrics listener with graceful
    shutdown.
*/
package services
