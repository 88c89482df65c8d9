// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

// Package logging provides centralized zerolog-based structured logging for Viewrec.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - JSON output for production and console output for development
//   - Correlation ID propagation through context (training runs, events)
//   - An slog.Handler adapter so sutureslog and watermill log through zerolog
//   - EventLogger, a component logger for interaction event processing
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("version", 3).Msg("Snapshot published")
//	logging.Error().Err(err).Msg("Retrain failed")
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Retrain started")
//
// # Component Loggers
//
// Long-lived components take a zerolog.Logger in their constructors and add
// a component field:
//
//	engine, err := recommend.NewEngine(cfg, provider, logging.WithComponent("engine"))
//
// Tests pass zerolog.Nop() or logging.NewTestLogger(&buf) to capture output.
package logging
