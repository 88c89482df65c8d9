// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

//go:build !nats

package events

import "github.com/ThreeDotsLabs/watermill"

func newNATSTransport(_ *Config, _ watermill.LoggerAdapter) (*Transport, error) {
	return nil, ErrNATSUnavailable
}
