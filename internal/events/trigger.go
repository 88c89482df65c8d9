// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
)

// RetrainChecker reports whether the interaction count sits on a retrain
// boundary. *recommend.Engine implements it.
type RetrainChecker interface {
	CheckRetrain(ctx context.Context) (due bool, count int64, err error)
}

// RetrainTrigger turns recorded interactions into retrain signals.
//
// Every Notify consults the checker so no boundary is skipped. A due
// boundary sets a pending flag. When the limiter refuses it, a token is
// reserved and a timer delivers the pending signal on Due() once the
// reservation matures; further boundaries coalesce into it.
type RetrainTrigger struct {
	checker RetrainChecker
	limiter *rate.Limiter
	due     chan struct{}
	logger  *logging.EventLogger

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	stopped bool
}

// NewRetrainTrigger creates a trigger allowing burst signals and then one
// per interval. A non-positive interval disables throttling.
func NewRetrainTrigger(checker RetrainChecker, interval time.Duration, burst int, logger *logging.EventLogger) *RetrainTrigger {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = logging.NewEventLogger()
	}
	return &RetrainTrigger{
		checker: checker,
		limiter: rate.NewLimiter(limit, burst),
		due:     make(chan struct{}, 1),
		logger:  logger,
	}
}

// Due delivers at most one outstanding retrain signal.
func (t *RetrainTrigger) Due() <-chan struct{} {
	return t.due
}

// Notify checks for a retrain boundary after an interaction was recorded.
func (t *RetrainTrigger) Notify(ctx context.Context) {
	due, count, err := t.checker.CheckRetrain(ctx)
	switch {
	case err != nil:
		metrics.RecordRetrainCheck("error")
		logging.Ctx(ctx).Warn().Err(err).Msg("retrain check failed")
	case due:
		metrics.RecordRetrainCheck("due")
		t.logger.LogRetrainSignaled(count)
	default:
		metrics.RecordRetrainCheck("not_due")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if due {
		t.pending = true
	}
	if !t.pending || t.stopped {
		return
	}
	if t.timer != nil {
		// a delayed delivery is already scheduled
		if due {
			metrics.RecordRetrainCheck("throttled")
		}
		return
	}
	if t.limiter.Allow() {
		t.deliverLocked()
		return
	}

	if due {
		metrics.RecordRetrainCheck("throttled")
	}
	r := t.limiter.Reserve()
	if !r.OK() {
		return
	}
	t.timer = time.AfterFunc(r.Delay(), t.flush)
}

// flush delivers a pending signal whose reservation has matured.
func (t *RetrainTrigger) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timer = nil
	if t.pending && !t.stopped {
		t.deliverLocked()
	}
}

func (t *RetrainTrigger) deliverLocked() {
	select {
	case t.due <- struct{}{}:
	default:
		// a signal is already waiting
	}
	t.pending = false
}

// Stop cancels any scheduled delivery. Later Notify calls still run the
// check but never signal.
func (t *RetrainTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Pending reports whether a throttled signal is waiting for the limiter.
func (t *RetrainTrigger) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
