// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/logging"
)

// ErrNATSUnavailable is returned when the nats transport is requested from
// a binary built without the nats tag.
var ErrNATSUnavailable = errors.New("nats transport not compiled in (build with -tags nats)")

// Transport bundles a watermill publisher and subscriber with whatever they
// need torn down on Close.
type Transport struct {
	Name       string
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewTransport opens the configured transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTransport(cfg *Config, logger zerolog.Logger) (*Transport, error) {
	wmLogger := NewWatermillLogger(logger)

	switch cfg.Transport {
	case TransportGoChannel, "":
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            cfg.BufferSize,
			BlockPublishUntilSubscriberAck: false,
			PreserveContext:                true,
		}, wmLogger)
		return &Transport{
			Name:       TransportGoChannel,
			Publisher:  ch,
			Subscriber: ch,
			closers:    []func() error{ch.Close},
		}, nil
	case TransportNATS:
		return newNATSTransport(cfg, wmLogger)
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}

// Close releases the transport in reverse order of creation.
func (t *Transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}

// NewWatermillLogger routes watermill logs into zerolog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLoggerWith(
		logger.With().Str("component", "watermill").Logger(),
	))
}
