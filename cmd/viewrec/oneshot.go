// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/recommend"
)

// batchEngine is the part of *recommend.Engine the one-shot mode uses.
type batchEngine interface {
	Train(ctx context.Context) error
	Recommend(ctx context.Context, userID string, n int) ([]recommend.Recommendation, error)
	RecommendAll(ctx context.Context, n int) (map[string][]recommend.Recommendation, error)
	Status() recommend.TrainingStatus
}

// userRecommendations is the JSON shape for a single user.
type userRecommendations struct {
	UserID          string                     `json:"user_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// batchOutput is the JSON shape for every user.
type batchOutput struct {
	ModelVersion int                                   `json:"model_version"`
	TrainedAt    time.Time                             `json:"trained_at"`
	Users        map[string][]recommend.Recommendation `json:"users"`
}

// runOnce trains a model, prints ranked lists as JSON and returns.
func runOnce(ctx context.Context, engine batchEngine, opts *options, w io.Writer) error {
	if err := engine.Train(ctx); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	status := engine.Status()
	logging.Info().
		Int("version", status.ModelVersion).
		Int("users", status.UserCount).
		Int("items", status.ItemCount).
		Int64("duration_ms", status.LastTrainingDurationMS).
		Msg("Model trained")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if opts.user != "" {
		recs, err := engine.Recommend(ctx, opts.user, opts.n)
		if err != nil {
			return fmt.Errorf("recommend for %s: %w", opts.user, err)
		}
		return enc.Encode(userRecommendations{UserID: opts.user, Recommendations: recs})
	}

	all, err := engine.RecommendAll(ctx, opts.n)
	if err != nil {
		return fmt.Errorf("recommend all: %w", err)
	}
	return enc.Encode(batchOutput{
		ModelVersion: status.ModelVersion,
		TrainedAt:    status.LastTrainedAt,
		Users:        all,
	})
}
