// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Model contains the ALS hyperparameters.
	Model ALSParams `json:"model"`

	// Split controls the held-out evaluation split.
	Split SplitConfig `json:"split"`

	// Ranking contains per-request ranking limits.
	Ranking RankingConfig `json:"ranking"`

	// Training contains training schedule parameters.
	Training TrainingConfig `json:"training"`

	// Cache contains ranked-list caching parameters.
	Cache CacheConfig `json:"cache"`
}

// SplitConfig controls how much of the matrix is held out before fitting.
type SplitConfig struct {
	// Fraction of nonzero cells withheld from training.
	// Default: 0.2.
	Fraction float64 `json:"fraction"`

	// Seed for the held-out draw.
	// Default: 0.
	Seed int64 `json:"seed"`
}

// RankingConfig contains per-request ranking limits.
type RankingConfig struct {
	// DefaultN is used when a request asks for zero items.
	// Default: 10.
	DefaultN int `json:"default_n"`

	// MaxN caps the number of items a request may ask for.
	// Default: 100.
	MaxN int `json:"max_n"`

	// LabelPolicy decides what happens when an item has no label.
	// Default: LabelOmit.
	LabelPolicy LabelPolicy `json:"label_policy"`
}

// TrainingConfig contains training schedule parameters.
type TrainingConfig struct {
	// Interval is the time between scheduled training runs.
	// Default: 24h.
	Interval time.Duration `json:"interval"`

	// MinInteractions is the minimum number of records required to train.
	// Default: 10.
	MinInteractions int `json:"min_interactions"`

	// Timeout is the maximum time allowed for a training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// SortedIndex assigns matrix positions in identifier order instead of
	// first-seen order.
	SortedIndex bool `json:"sorted_index"`

	// Evaluate computes held-out AUC after every fit.
	// Default: true.
	Evaluate bool `json:"evaluate"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: DefaultALSParams(),
		Split: SplitConfig{
			Fraction: 0.2,
			Seed:     0,
		},
		Ranking: RankingConfig{
			DefaultN:    10,
			MaxN:        100,
			LabelPolicy: LabelOmit,
		},
		Training: TrainingConfig{
			Interval:        24 * time.Hour,
			MinInteractions: 10,
			Timeout:         10 * time.Minute,
			Evaluate:        true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	if math.IsNaN(c.Split.Fraction) || c.Split.Fraction < 0 || c.Split.Fraction > 1 {
		return fmt.Errorf("split.fraction: %w, got %f", ErrInvalidFraction, c.Split.Fraction)
	}

	if c.Ranking.DefaultN < 1 {
		return fmt.Errorf("ranking.default_n must be positive, got %d", c.Ranking.DefaultN)
	}
	if c.Ranking.MaxN < c.Ranking.DefaultN {
		return fmt.Errorf("ranking.max_n must be >= ranking.default_n, got %d < %d", c.Ranking.MaxN, c.Ranking.DefaultN)
	}

	if c.Training.MinInteractions < 0 {
		return fmt.Errorf("training.min_interactions must be non-negative, got %d", c.Training.MinInteractions)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}

	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive when caching is enabled, got %d", c.Cache.MaxEntries)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// all nested structs contain only value types
	clone := *c
	return &clone
}

// MarshalJSON renders durations and the label policy as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type training struct {
		Interval        string `json:"interval"`
		MinInteractions int    `json:"min_interactions"`
		Timeout         string `json:"timeout"`
		SortedIndex     bool   `json:"sorted_index"`
		Evaluate        bool   `json:"evaluate"`
	}
	type ranking struct {
		DefaultN    int    `json:"default_n"`
		MaxN        int    `json:"max_n"`
		LabelPolicy string `json:"label_policy"`
	}
	type cache struct {
		Enabled    bool   `json:"enabled"`
		TTL        string `json:"ttl"`
		MaxEntries int    `json:"max_entries"`
	}

	return json.Marshal(&struct {
		Model    ALSParams   `json:"model"`
		Split    SplitConfig `json:"split"`
		Ranking  ranking     `json:"ranking"`
		Training training    `json:"training"`
		Cache    cache       `json:"cache"`
	}{
		Model: c.Model,
		Split: c.Split,
		Ranking: ranking{
			DefaultN:    c.Ranking.DefaultN,
			MaxN:        c.Ranking.MaxN,
			LabelPolicy: c.Ranking.LabelPolicy.String(),
		},
		Training: training{
			Interval:        c.Training.Interval.String(),
			MinInteractions: c.Training.MinInteractions,
			Timeout:         c.Training.Timeout.String(),
			SortedIndex:     c.Training.SortedIndex,
			Evaluate:        c.Training.Evaluate,
		},
		Cache: cache{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}

// clampN applies the ranking defaults and limits to a requested size.
func (c *Config) clampN(n int) int {
	if n <= 0 {
		n = c.Ranking.DefaultN
	}
	if n > c.Ranking.MaxN {
		n = c.Ranking.MaxN
	}
	return n
}
