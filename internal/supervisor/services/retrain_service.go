// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/metrics"
	"github.com/tomtom215/viewrec/internal/recommend"
)

// RetrainEngine is the part of *recommend.Engine the service drives.
type RetrainEngine interface {
	Train(ctx context.Context) error
	Restore(ctx context.Context) error
	Status() recommend.TrainingStatus
}

// RetrainServiceConfig holds configuration for the retrain service.
type RetrainServiceConfig struct {
	// RestoreOnStartup loads the newest persisted snapshot before anything else.
	RestoreOnStartup bool

	// TrainOnStartup trains when the service starts. With RestoreOnStartup
	// it only trains if nothing could be restored.
	TrainOnStartup bool

	// TrainInterval is how often to retrain regardless of events.
	// Default: 24h
	TrainInterval time.Duration
}

// RetrainService drives the engine's training lifecycle under supervision.
type RetrainService struct {
	engine RetrainEngine
	config RetrainServiceConfig
	due    <-chan struct{}
	logger zerolog.Logger
	name   string
}

// NewRetrainService creates a retrain service. due may be nil when no
// event trigger is configured.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(engine RetrainEngine, cfg RetrainServiceConfig, due <-chan struct{}, logger zerolog.Logger) *RetrainService {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 24 * time.Hour
	}
	return &RetrainService{
		engine: engine,
		config: cfg,
		due:    due,
		logger: logger.With().Str("service", "retrain").Logger(),
		name:   "retrain-service",
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("restore_on_startup", s.config.RestoreOnStartup).
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("retrain service starting")

	s.startup(ctx)

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.retrain(ctx, "schedule")

		case <-s.due:
			s.retrain(ctx, "event_trigger")
		}
	}
}

func (s *RetrainService) startup(ctx context.Context) {
	if s.engine.Status().ModelVersion > 0 {
		// restarted by the supervisor with a model already published
		return
	}

	if s.config.RestoreOnStartup {
		err := s.engine.Restore(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, recommend.ErrModelNotReady) {
			s.logger.Info().Msg("no stored snapshot to restore")
		} else {
			s.logger.Warn().Err(err).Msg("snapshot restore failed")
		}
	}

	if s.config.TrainOnStartup {
		s.retrain(ctx, "startup")
	}
}

// retrain runs one training cycle. Failures are logged and the service
// keeps running on the previous snapshot.
func (s *RetrainService) retrain(ctx context.Context, reason string) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := s.logger.With().
		Str("reason", reason).
		Str("correlation_id", logging.CorrelationIDFromContext(ctx)).
		Logger()

	start := time.Now()
	logger.Info().Msg("starting model training")

	err := s.engine.Train(ctx)
	switch {
	case err == nil:
		status := s.engine.Status()
		logger.Info().
			Dur("duration", time.Since(start)).
			Int("version", status.ModelVersion).
			Int("users", status.UserCount).
			Int("items", status.ItemCount).
			Msg("model training complete")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		metrics.RecordTraining(0, err)
		logger.Debug().Msg("training already in progress")
	case errors.Is(err, recommend.ErrInsufficientData):
		logger.Info().Err(err).Msg("not enough interactions to train")
	case ctx.Err() != nil:
		logger.Info().Msg("training canceled")
	default:
		logger.Warn().Err(err).Msg("model training failed")
	}
}

// String returns the service name for logging.
func (s *RetrainService) String() string {
	return s.name
}
