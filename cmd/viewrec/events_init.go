// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/viewrec/internal/config"
	"github.com/tomtom215/viewrec/internal/events"
	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
)

// EventComponents holds the interaction event pipeline.
type EventComponents struct {
	Transport *events.Transport
	Consumer  *events.Consumer
	Trigger   *events.RetrainTrigger
	Publisher *events.Publisher
}

// initEvents opens the configured transport and builds the consumer that
// records events into the source and nudges the retrain trigger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initEvents(cfg *config.Config, checker events.RetrainChecker, recorder events.Recorder, logger zerolog.Logger) (*EventComponents, error) {
	transport, err := events.NewTransport(&cfg.Events, logger)
	if err != nil {
		if errors.Is(err, events.ErrNATSUnavailable) {
			return nil, fmt.Errorf("events.transport=nats: %w", err)
		}
		return nil, fmt.Errorf("open event transport: %w", err)
	}

	trigger := events.NewRetrainTrigger(
		checker,
		cfg.Events.TriggerInterval,
		cfg.Events.TriggerBurst,
		logging.NewEventLoggerWithLogger(logger),
	)

	consumer := events.NewConsumer(transport, &cfg.Events, recorder, logger, events.WithTrigger(trigger))

	publisher := events.NewPublisher(transport.Publisher, cfg.Events.Topic, logger)
	publisher.SetCircuitBreaker(newPublishBreaker(logger))

	logger.Info().
		Str("transport", transport.Name).
		Str("topic", cfg.Events.Topic).
		Dur("trigger_interval", cfg.Events.TriggerInterval).
		Msg("event pipeline initialized")

	return &EventComponents{
		Transport: transport,
		Consumer:  consumer,
		Trigger:   trigger,
		Publisher: publisher,
	}, nil
}

// newPublishBreaker trips after repeated publish failures so a dead broker
// fails fast instead of blocking callers.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newPublishBreaker(logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.RecordBreakerState(name, to.String())
		},
	})
}

// Close stops the trigger and publisher and releases the transport.
func (c *EventComponents) Close() {
	c.Trigger.Stop()
	if err := c.Publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event publisher")
	}
	if err := c.Transport.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event transport")
	}
}

// parsePublishSpec parses user:item[:signal]. The signal defaults to 1.
func parsePublishSpec(spec string) (*events.InteractionEvent, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("publish spec %q must be user:item[:signal]", spec)
	}

	signal := 1.0
	if len(parts) == 3 {
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("publish spec %q: invalid signal: %w", spec, err)
		}
		signal = v
	}

	event := events.NewInteractionEvent(parts[0], parts[1], signal)
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("publish spec %q: %w", spec, err)
	}
	return event, nil
}

// publishOnReady waits for the consumer's subscription and then publishes
// the -publish events through the transport.
func publishOnReady(ctx context.Context, ev *EventComponents, specs []string) {
	batch := make([]*events.InteractionEvent, 0, len(specs))
	for _, spec := range specs {
		event, err := parsePublishSpec(spec)
		if err != nil {
			logging.Error().Err(err).Msg("Skipping invalid -publish value")
			continue
		}
		batch = append(batch, event)
	}
	if len(batch) == 0 {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-ev.Consumer.Ready():
	}

	if err := ev.Publisher.PublishBatch(ctx, batch...); err != nil {
		logging.Error().Err(err).Msg("Failed to publish interaction events")
		return
	}
	logging.Info().Int("count", len(batch)).Msg("Published interaction events")
}
