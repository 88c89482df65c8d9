// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/tomtom215/viewrec/internal/events"
	"github.com/tomtom215/viewrec/internal/validation"
)

// Validate checks struct tags first, then the rules that span fields or
// need a package's own validation.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateSource,
		c.validateEngine,
		c.validateEvents,
		c.validateMetrics,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateSource applies the source package's identifier rules.
func (c *Config) validateSource() error {
	src := c.ToSourceConfig()
	if err := src.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}

// validateEngine applies the recommendation engine's own checks, which
// include cross-field rules such as max_n >= default_n.
func (c *Config) validateEngine() error {
	return c.ToEngineConfig().Validate()
}

// validateEvents validates the event transport (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}

	if err := c.Events.Validate(); err != nil {
		return err
	}

	if c.Events.Transport == events.TransportNATS && !c.Events.EmbeddedServer {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("events.nats_url is invalid: %w", err)
		}
	}
	return nil
}

// validateMetrics validates the metrics listener (only if enabled)
func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}

	if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
		return fmt.Errorf("metrics.addr %q must be host:port: %w", c.Metrics.Addr, err)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}
