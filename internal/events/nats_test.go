// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

//go:build nats

package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNATSTransport_EmbeddedRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Transport = TransportNATS
	cfg.EmbeddedServer = true
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()
	cfg.CloseTimeout = 5 * time.Second

	tr, err := NewTransport(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	defer func() { _ = tr.Close() }()

	rec := &memoryRecorder{}
	c := NewConsumer(tr, cfg, rec, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()
	<-c.Ready()

	pub := NewPublisher(tr.Publisher, cfg.Topic, zerolog.Nop())
	if err := pub.Publish(ctx, NewInteractionEvent("alice", "lamp", 1)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, "recorded interaction", func() bool { return len(rec.snapshot()) == 1 })
}
