// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package source

import (
	"fmt"
	"regexp"
	"time"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds DuckDB connection and table settings.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string

	// ViewsTable holds one row per raw interaction.
	ViewsTable string

	// ItemsTable holds item display labels.
	ItemsTable string

	// Threads caps DuckDB worker threads (0 = DuckDB default).
	Threads int

	// QueryTimeout bounds every read query.
	QueryTimeout time.Duration
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:         "data/viewrec.duckdb",
		ViewsTable:   "views",
		ItemsTable:   "items",
		QueryTimeout: 30 * time.Second,
	}
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !identifierPattern.MatchString(c.ViewsTable) {
		return fmt.Errorf("views table %q is not a valid identifier", c.ViewsTable)
	}
	if !identifierPattern.MatchString(c.ItemsTable) {
		return fmt.Errorf("items table %q is not a valid identifier", c.ItemsTable)
	}
	if c.ViewsTable == c.ItemsTable {
		return fmt.Errorf("views and items tables must differ, both are %q", c.ViewsTable)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be non-negative, got %d", c.Threads)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive, got %v", c.QueryTimeout)
	}
	return nil
}
