// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/config"
	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
	"github.com/tomtom215/viewrec/internal/recommend"
	"github.com/tomtom215/viewrec/internal/recommend/storage"
	"github.com/tomtom215/viewrec/internal/source"
)

// EngineComponents holds the engine and the resources it owns.
type EngineComponents struct {
	Engine *recommend.Engine
	Store  *storage.Store
}

// initEngine builds the recommendation engine over the breaker-protected
// source, with the snapshot store attached when enabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initEngine(cfg *config.Config, provider recommend.DataProvider, logger zerolog.Logger) (*EngineComponents, error) {
	engineCfg := cfg.ToEngineConfig()

	logger.Info().
		Int("rank", engineCfg.Model.Rank).
		Int("iterations", engineCfg.Model.Iterations).
		Float64("alpha", engineCfg.Model.Alpha).
		Float64("regularization", engineCfg.Model.Regularization).
		Float64("held_out_fraction", engineCfg.Split.Fraction).
		Dur("train_interval", engineCfg.Training.Interval).
		Msg("initializing recommendation engine")

	opts := []recommend.EngineOption{recommend.WithObserver(metrics.Observer{})}

	components := &EngineComponents{}
	if cfg.Store.Enabled {
		store, err := storage.Open(cfg.Store.Dir, cfg.Store.Retain, logger)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		components.Store = store
		opts = append(opts, recommend.WithSnapshotStore(store))
		logger.Info().Str("dir", cfg.Store.Dir).Int("retain", cfg.Store.Retain).Msg("snapshot store opened")
	}

	resilient := source.NewResilientProvider(provider, cfg.ToBreakerConfig(), logger)

	engine, err := recommend.NewEngine(engineCfg, resilient, logger, opts...)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	components.Engine = engine

	return components, nil
}

// Close releases the snapshot store.
func (c *EngineComponents) Close() {
	if c.Store == nil {
		return
	}
	if err := c.Store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing snapshot store")
	}
}
