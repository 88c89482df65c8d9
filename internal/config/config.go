// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package config

import (
	"time"

	"github.com/tomtom215/viewrec/internal/events"
	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/recommend"
	"github.com/tomtom215/viewrec/internal/source"
	"github.com/tomtom215/viewrec/internal/supervisor"
)

// Config holds all application configuration.
type Config struct {
	Logging    logging.Config        `koanf:"logging"`
	Source     SourceConfig          `koanf:"source"`
	Store      StoreConfig           `koanf:"store"`
	Model      ModelConfig           `koanf:"model"`
	Split      SplitConfig           `koanf:"split"`
	Ranking    RankingConfig         `koanf:"ranking"`
	Training   TrainingConfig        `koanf:"training"`
	Cache      CacheConfig           `koanf:"cache"`
	Events     events.Config         `koanf:"events"`
	Metrics    MetricsConfig         `koanf:"metrics"`
	Supervisor supervisor.TreeConfig `koanf:"supervisor"`
}

// SourceConfig holds the DuckDB interaction database settings.
type SourceConfig struct {
	// Path is the database file. Empty opens an in-memory database.
	Path         string        `koanf:"path"`
	ViewsTable   string        `koanf:"views_table" validate:"required"`
	ItemsTable   string        `koanf:"items_table" validate:"required"`
	Threads      int           `koanf:"threads" validate:"gte=0"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
	Breaker      BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds circuit breaker settings for source reads.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// StoreConfig holds the badger snapshot store settings.
type StoreConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir" validate:"required_if=Enabled true"`

	// Retain is the number of snapshot versions kept (0 keeps all).
	Retain int `koanf:"retain" validate:"gte=0"`
}

// ModelConfig holds the ALS hyperparameters.
type ModelConfig struct {
	Rank           int     `koanf:"rank" validate:"gte=1"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	Alpha          float64 `koanf:"alpha" validate:"gte=0"`
	Iterations     int     `koanf:"iterations" validate:"gte=0"`
	Workers        int     `koanf:"workers" validate:"gte=0"`
	Seed           int64   `koanf:"seed"`
}

// SplitConfig controls the held-out evaluation split.
type SplitConfig struct {
	Fraction float64 `koanf:"fraction" validate:"gte=0,lte=1"`
	Seed     int64   `koanf:"seed"`
}

// RankingConfig holds per-request ranking limits.
type RankingConfig struct {
	DefaultN    int    `koanf:"default_n" validate:"gte=1"`
	MaxN        int    `koanf:"max_n" validate:"gte=1"`
	LabelPolicy string `koanf:"label_policy" validate:"oneof=omit strict"`
}

// TrainingConfig holds training schedule settings.
type TrainingConfig struct {
	// RestoreOnStartup loads the newest stored snapshot before serving.
	RestoreOnStartup bool `koanf:"restore_on_startup"`

	// TrainOnStartup fits a model when no snapshot could be restored.
	TrainOnStartup bool `koanf:"train_on_startup"`

	Interval        time.Duration `koanf:"interval" validate:"gte=0"`
	MinInteractions int           `koanf:"min_interactions" validate:"gte=0"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	SortedIndex     bool          `koanf:"sorted_index"`
	Evaluate        bool          `koanf:"evaluate"`
}

// CacheConfig holds ranked-list cache settings.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl" validate:"gte=0"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=0"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

// defaultConfig returns a Config with all defaults applied.
func defaultConfig() *Config {
	engine := recommend.DefaultConfig()
	src := source.DefaultConfig()
	breaker := source.DefaultBreakerConfig("source")

	return &Config{
		Logging: logging.DefaultConfig(),
		Source: SourceConfig{
			Path:         src.Path,
			ViewsTable:   src.ViewsTable,
			ItemsTable:   src.ItemsTable,
			Threads:      src.Threads,
			QueryTimeout: src.QueryTimeout,
			Breaker: BreakerConfig{
				MaxRequests:      breaker.MaxRequests,
				Interval:         breaker.Interval,
				Timeout:          breaker.Timeout,
				FailureThreshold: breaker.FailureThreshold,
			},
		},
		Store: StoreConfig{
			Enabled: true,
			Dir:     "data/snapshots",
			Retain:  3,
		},
		Model: ModelConfig{
			Rank:           engine.Model.Rank,
			Regularization: engine.Model.Regularization,
			Alpha:          engine.Model.Alpha,
			Iterations:     engine.Model.Iterations,
			Workers:        engine.Model.Workers,
			Seed:           engine.Model.Seed,
		},
		Split: SplitConfig{
			Fraction: engine.Split.Fraction,
			Seed:     engine.Split.Seed,
		},
		Ranking: RankingConfig{
			DefaultN:    engine.Ranking.DefaultN,
			MaxN:        engine.Ranking.MaxN,
			LabelPolicy: engine.Ranking.LabelPolicy.String(),
		},
		Training: TrainingConfig{
			RestoreOnStartup: true,
			TrainOnStartup:   true,
			Interval:         engine.Training.Interval,
			MinInteractions:  engine.Training.MinInteractions,
			Timeout:          engine.Training.Timeout,
			SortedIndex:      engine.Training.SortedIndex,
			Evaluate:         engine.Training.Evaluate,
		},
		Cache: CacheConfig{
			Enabled:    engine.Cache.Enabled,
			TTL:        engine.Cache.TTL,
			MaxEntries: engine.Cache.MaxEntries,
		},
		Events: events.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9464",
			Path:    "/metrics",
		},
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// ToEngineConfig converts the model, split, ranking, training and cache
// sections into the recommendation engine's configuration.
func (c *Config) ToEngineConfig() *recommend.Config {
	return &recommend.Config{
		Model: recommend.ALSParams{
			Rank:           c.Model.Rank,
			Regularization: c.Model.Regularization,
			Alpha:          c.Model.Alpha,
			Iterations:     c.Model.Iterations,
			Seed:           c.Model.Seed,
			Workers:        c.Model.Workers,
		},
		Split: recommend.SplitConfig{
			Fraction: c.Split.Fraction,
			Seed:     c.Split.Seed,
		},
		Ranking: recommend.RankingConfig{
			DefaultN:    c.Ranking.DefaultN,
			MaxN:        c.Ranking.MaxN,
			LabelPolicy: recommend.ParseLabelPolicy(c.Ranking.LabelPolicy),
		},
		Training: recommend.TrainingConfig{
			Interval:        c.Training.Interval,
			MinInteractions: c.Training.MinInteractions,
			Timeout:         c.Training.Timeout,
			SortedIndex:     c.Training.SortedIndex,
			Evaluate:        c.Training.Evaluate,
		},
		Cache: recommend.CacheConfig{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL,
			MaxEntries: c.Cache.MaxEntries,
		},
	}
}

// ToSourceConfig returns the DuckDB settings.
func (c *Config) ToSourceConfig() source.Config {
	return source.Config{
		Path:         c.Source.Path,
		ViewsTable:   c.Source.ViewsTable,
		ItemsTable:   c.Source.ItemsTable,
		Threads:      c.Source.Threads,
		QueryTimeout: c.Source.QueryTimeout,
	}
}

// ToBreakerConfig returns the circuit breaker settings for source reads.
func (c *Config) ToBreakerConfig() source.BreakerConfig {
	return source.BreakerConfig{
		Name:             "source",
		MaxRequests:      c.Source.Breaker.MaxRequests,
		Interval:         c.Source.Breaker.Interval,
		Timeout:          c.Source.Breaker.Timeout,
		FailureThreshold: c.Source.Breaker.FailureThreshold,
	}
}
