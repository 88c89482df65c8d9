// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package events carries "interaction recorded" events between producers and
the recommendation service over watermill.

# Transports

Two transports are supported, selected by Config.Transport:

  - gochannel: in-process pub/sub (default, no external broker)
  - nats: NATS JetStream through watermill-nats, optionally with an
    embedded nats-server; compiled only with -tags nats

# Data Flow

	producer -> Publisher.Publish -> topic -> Consumer.Run
	                                            |
	                                  Recorder.RecordInteraction (DuckDB)
	                                            |
	                                  RetrainTrigger.Notify -> Due()

The Consumer acks a message only after the interaction is recorded, so a
failed write is redelivered. Event IDs already recorded are remembered in a
bounded LRU and redeliveries are acked without a second write. Malformed
payloads are acked and dropped.

RetrainTrigger asks the engine whether the interaction count has landed on
a retrain boundary after every recorded event. Signals are rate limited
with golang.org/x/time/rate and coalesced into a single pending signal, so
a burst of events never queues more than one retrain. A throttled signal
is delivered by a timer when its reservation matures, even if no further
event arrives.
*/
package events
