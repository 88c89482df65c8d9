// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package services

import (
	"context"
	"errors"
	"fmt"
)

// errSubscriptionClosed makes the supervisor restart a consumer whose
// subscription ended while the service was still wanted.
var errSubscriptionClosed = errors.New("event subscription closed")

// EventConsumer matches *events.Consumer.
type EventConsumer interface {
	Run(ctx context.Context) error
}

// EventConsumerService wraps an event consumer as a supervised service.
type EventConsumerService struct {
	consumer EventConsumer
	name     string
}

// NewEventConsumerService creates a new event consumer service wrapper.
func NewEventConsumerService(consumer EventConsumer) *EventConsumerService {
	return &EventConsumerService{
		consumer: consumer,
		name:     "event-consumer",
	}
}

// Serve implements suture.Service.
func (s *EventConsumerService) Serve(ctx context.Context) error {
	err := s.consumer.Run(ctx)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case err == nil:
		return errSubscriptionClosed
	default:
		return fmt.Errorf("event consumer failed: %w", err)
	}
}

// String implements fmt.Stringer for logging.
func (s *EventConsumerService) String() string {
	return s.name
}
