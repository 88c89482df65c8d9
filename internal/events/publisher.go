// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher publishes interaction events with optional circuit breaker
// protection.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[any]
	logger    *logging.EventLogger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps a watermill publisher for topic.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisher(pub message.Publisher, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		publisher: pub,
		topic:     topic,
		logger:    logging.NewEventLoggerWithLogger(logger),
	}
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[any]) {
	p.breaker = cb
}

// Publish validates and sends one event.
func (p *Publisher) Publish(ctx context.Context, event *InteractionEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if err := event.Validate(); err != nil {
		return err
	}
	msg, err := event.ToMessage()
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
	} else {
		err = p.publisher.Publish(p.topic, msg)
	}
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.EventID, err)
	}

	metrics.RecordEventPublished()
	p.logger.LogEventPublished(ctx, event.EventID, p.topic)
	return nil
}

// PublishBatch publishes events in order, stopping at the first failure.
func (p *Publisher) PublishBatch(ctx context.Context, events ...*InteractionEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Close stops further publishing. The underlying transport is closed by
// its owner.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
