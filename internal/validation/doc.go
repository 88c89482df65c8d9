// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is created on first use and caches struct
// metadata for the life of the process. Field names in errors come from
// koanf tags, so a failure on Config.Events.Topic is reported as
// "events.topic", the same key an operator writes in config.yaml.
//
//	type MetricsConfig struct {
//	    Enabled bool   `koanf:"enabled"`
//	    Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    var se *validation.StructError
//	    if errors.As(err, &se) && se.Has("metrics.addr") {
//	        // ...
//	    }
//	}
//
// Struct fields are validated recursively. Cross-field rules that tags
// cannot express belong in the owning package's Validate method.
package validation
