// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/viewrec/config.yaml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks environment variables that map onto config keys.
// A double underscore separates nesting levels:
// VIEWREC_EVENTS__NATS_URL -> events.nats_url.
const EnvPrefix = "VIEWREC_"

// Load loads configuration from defaults, the first config file found and
// the environment. Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back
// to CONFIG_PATH and DefaultConfigPaths; a non-empty path must exist.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envAliases maps short, conventional variable names onto config keys.
var envAliases = map[string]string{
	"log_level":      "logging.level",
	"log_format":     "logging.format",
	"duckdb_path":    "source.path",
	"snapshot_dir":   "store.dir",
	"nats_url":       "events.nats_url",
	"nats_embedded":  "events.embedded_server",
	"nats_store_dir": "events.store_dir",
	"metrics_addr":   "metrics.addr",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - VIEWREC_MODEL__RANK -> model.rank
//   - VIEWREC_EVENTS__TRIGGER_INTERVAL -> events.trigger_interval
//   - DUCKDB_PATH -> source.path
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if rest, ok := strings.CutPrefix(key, EnvPrefix); ok {
		if rest == "" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(rest), "__", ".")
	}

	if mapped, ok := envAliases[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated variables never reach the config
	return ""
}
