// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/viewrec/internal/metrics"
	"github.com/tomtom215/viewrec/internal/recommend"
)

// ErrSourceUnavailable is returned while the circuit breaker is open.
var ErrSourceUnavailable = errors.New("interaction source unavailable")

// ResilientProvider wraps a recommend.DataProvider in a circuit breaker.
// After FailureThreshold consecutive failures every call fails fast with
// ErrSourceUnavailable until the breaker's timeout elapses.
type ResilientProvider struct {
	next    recommend.DataProvider
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

// NewResilientProvider wraps next with breaker protection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilientProvider(next recommend.DataProvider, cfg BreakerConfig, logger zerolog.Logger) *ResilientProvider {
	p := &ResilientProvider{
		next:   next,
		logger: logger.With().Str("component", "source_breaker").Logger(),
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a source failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.RecordBreakerState(name, to.String())
		},
	}
	p.breaker = gobreaker.NewCircuitBreaker[any](settings)

	return p
}

// State returns the breaker state ("closed", "half-open" or "open").
func (p *ResilientProvider) State() string {
	return p.breaker.State().String()
}

// Interactions implements recommend.DataProvider.
func (p *ResilientProvider) Interactions(ctx context.Context) ([]recommend.Interaction, error) {
	v, err := p.execute(func() (any, error) {
		return p.next.Interactions(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := v.([]recommend.Interaction)
	return records, nil
}

// ItemLabels implements recommend.DataProvider.
func (p *ResilientProvider) ItemLabels(ctx context.Context) (recommend.Labels, error) {
	v, err := p.execute(func() (any, error) {
		return p.next.ItemLabels(ctx)
	})
	if err != nil {
		return nil, err
	}
	labels, _ := v.(recommend.Labels)
	return labels, nil
}

// CountInteractions implements recommend.DataProvider.
func (p *ResilientProvider) CountInteractions(ctx context.Context) (int64, error) {
	v, err := p.execute(func() (any, error) {
		return p.next.CountInteractions(ctx)
	})
	if err != nil {
		return 0, err
	}
	count, _ := v.(int64)
	return count, nil
}

func (p *ResilientProvider) execute(fn func() (any, error)) (any, error) {
	v, err := p.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return v, err
}
