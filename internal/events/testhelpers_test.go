// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/recommend"
)

// memoryRecorder stores interactions and fails the first failN writes.
type memoryRecorder struct {
	mu      sync.Mutex
	records []recommend.Interaction
	failN   int
	calls   int
}

func (r *memoryRecorder) RecordInteraction(_ context.Context, rec recommend.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failN {
		return errors.New("write failed")
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRecorder) snapshot() []recommend.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recommend.Interaction(nil), r.records...)
}

// scriptedChecker answers CheckRetrain from a fixed script, then not due.
type scriptedChecker struct {
	mu     sync.Mutex
	script []bool
	err    error
	calls  int
}

func (c *scriptedChecker) CheckRetrain(context.Context) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return false, 0, c.err
	}
	if len(c.script) == 0 {
		return false, int64(c.calls), nil
	}
	due := c.script[0]
	c.script = c.script[1:]
	return due, int64(c.calls), nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.DedupeSize = 100
	cfg.DedupeTTL = time.Minute
	cfg.TriggerInterval = 0
	return &cfg
}

func newTestTransport(t *testing.T) *Transport {
	t.Helper()
	tr, err := NewTransport(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
