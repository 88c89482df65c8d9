// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/cache"
	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
	"github.com/tomtom215/viewrec/internal/recommend"
)

// Recorder persists one interaction. *source.DB implements it.
type Recorder interface {
	RecordInteraction(ctx context.Context, rec recommend.Interaction) error
}

// Consumer records interaction events from a subscriber.
type Consumer struct {
	subscriber message.Subscriber
	topic      string
	transport  string
	recorder   Recorder
	trigger    *RetrainTrigger
	seen       *cache.LRU[string, struct{}]
	logger     *logging.EventLogger

	ready     chan struct{}
	readyOnce sync.Once
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithTrigger notifies t after every recorded event.
func WithTrigger(t *RetrainTrigger) ConsumerOption {
	return func(c *Consumer) {
		c.trigger = t
	}
}

// NewConsumer creates a consumer for the transport's subscriber.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsumer(t *Transport, cfg *Config, recorder Recorder, logger zerolog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		subscriber: t.Subscriber,
		topic:      cfg.Topic,
		transport:  t.Name,
		recorder:   recorder,
		seen:       cache.NewLRU[string, struct{}](cfg.DedupeSize, cfg.DedupeTTL),
		logger:     logging.NewEventLoggerWithLogger(logger),
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is canceled or the subscription closes.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}
	c.readyOnce.Do(func() { close(c.ready) })
	c.logger.LogSubscriptionStarted(c.topic, c.transport)
	defer c.logger.LogSubscriptionStopped(c.topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

// Ready is closed once the first subscription is established.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// handle acks or nacks msg. Only a failed write is nacked.
func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	start := time.Now()
	metrics.RecordEventConsumed()

	event, err := FromMessage(msg)
	if err != nil {
		metrics.RecordEventRejected()
		c.logger.LogEventRejected(ctx, msg.UUID, err)
		msg.Ack()
		return
	}

	ctx = logging.ContextWithCorrelationID(ctx, event.EventID)
	c.logger.LogEventReceived(ctx, event.EventID, event.UserID, event.ItemID)

	if _, dup := c.seen.Get(event.EventID); dup {
		metrics.RecordEventDeduplicated()
		c.logger.LogDuplicate(ctx, event.EventID)
		msg.Ack()
		return
	}

	if err := c.recorder.RecordInteraction(ctx, event.Interaction()); err != nil {
		c.logger.LogEventFailed(ctx, event.EventID, err)
		msg.Nack()
		return
	}

	c.seen.Add(event.EventID, struct{}{})
	msg.Ack()

	duration := time.Since(start)
	metrics.RecordEventProcessed(duration)
	c.logger.LogEventProcessed(ctx, event.EventID, duration)

	if c.trigger != nil {
		c.trigger.Notify(ctx)
	}
}
