// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventLogger provides logging for interaction event processing with
// domain-specific methods for the consumer and publisher.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates an EventLogger on the global logger.
func NewEventLogger() *EventLogger {
	return NewEventLoggerWithLogger(Logger())
}

// NewEventLoggerWithLogger creates an EventLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Logger returns the underlying zerolog logger.
func (e *EventLogger) Logger() zerolog.Logger {
	return e.logger
}

func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		return e.logger.With().Str("correlation_id", correlationID).Logger()
	}
	return e.logger
}

// LogEventReceived logs an interaction event arriving from the transport.
func (e *EventLogger) LogEventReceived(ctx context.Context, eventID, userID, itemID string) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("item_id", itemID).
		Msg("event received")
}

// LogEventProcessed logs an interaction event being recorded.
func (e *EventLogger) LogEventProcessed(ctx context.Context, eventID string, duration time.Duration) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Dur("duration", duration).
		Msg("event processed")
}

// LogEventFailed logs a recording failure; the message will be redelivered.
func (e *EventLogger) LogEventFailed(ctx context.Context, eventID string, err error) {
	logger := e.loggerWithContext(ctx)
	logger.Error().
		Str("event_id", eventID).
		Err(err).
		Msg("event processing failed")
}

// LogEventRejected logs a malformed event being dropped.
func (e *EventLogger) LogEventRejected(ctx context.Context, messageID string, err error) {
	logger := e.loggerWithContext(ctx)
	logger.Warn().
		Str("message_id", messageID).
		Err(err).
		Msg("malformed event dropped")
}

// LogDuplicate logs a redelivered event being skipped.
func (e *EventLogger) LogDuplicate(ctx context.Context, eventID string) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Msg("duplicate event skipped")
}

// LogEventPublished logs an event being published.
func (e *EventLogger) LogEventPublished(ctx context.Context, eventID, topic string) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("topic", topic).
		Msg("event published")
}

// LogSubscriptionStarted logs a subscription starting.
func (e *EventLogger) LogSubscriptionStarted(topic, transport string) {
	e.logger.Info().
		Str("topic", topic).
		Str("transport", transport).
		Msg("subscription started")
}

// LogSubscriptionStopped logs a subscription ending.
func (e *EventLogger) LogSubscriptionStopped(topic string) {
	e.logger.Info().
		Str("topic", topic).
		Msg("subscription stopped")
}

// LogRetrainSignaled logs the retrain trigger firing.
func (e *EventLogger) LogRetrainSignaled(count int64) {
	e.logger.Info().
		Int64("interactions", count).
		Msg("retrain boundary crossed")
}
