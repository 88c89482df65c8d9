// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"fmt"
	"time"
)

// Supported transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// Config holds event transport and consumer settings.
type Config struct {
	// Enabled turns on the event consumer service.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Transport is gochannel or nats.
	Transport string `koanf:"transport" json:"transport" validate:"oneof=gochannel nats"`

	// Topic carries interaction events. NATS stream names are derived from
	// it, so it must not contain dots or wildcards.
	Topic string `koanf:"topic" json:"topic" validate:"required,excludesall=.*>"`

	// BufferSize is the gochannel output buffer per subscriber.
	BufferSize int64 `koanf:"buffer_size" json:"buffer_size" validate:"gte=0"`

	// NATSURL is the broker URL. Ignored when EmbeddedServer is set.
	NATSURL string `koanf:"nats_url" json:"nats_url"`

	// EmbeddedServer starts an in-process nats-server with JetStream.
	EmbeddedServer bool `koanf:"embedded_server" json:"embedded_server"`

	// Host and Port are the embedded server's listen address.
	Host string `koanf:"host" json:"host"`
	Port int    `koanf:"port" json:"port" validate:"gte=-1,lte=65535"`

	// StoreDir is the embedded server's JetStream directory.
	StoreDir string `koanf:"store_dir" json:"store_dir"`

	// QueueGroup load-balances subscribers across instances.
	QueueGroup string `koanf:"queue_group" json:"queue_group"`

	// DurableName keeps consumer position across restarts.
	DurableName string `koanf:"durable_name" json:"durable_name"`

	// SubscribersCount is the number of NATS subscriber goroutines.
	SubscribersCount int `koanf:"subscribers_count" json:"subscribers_count" validate:"gte=1"`

	// AckWaitTimeout is how long the broker waits before redelivery.
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout" json:"ack_wait_timeout"`

	// CloseTimeout bounds subscriber shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout" json:"close_timeout"`

	// MaxReconnects and ReconnectWait control NATS client reconnection.
	MaxReconnects int           `koanf:"max_reconnects" json:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" json:"reconnect_wait"`

	// TriggerInterval is the minimum spacing between retrain signals.
	TriggerInterval time.Duration `koanf:"trigger_interval" json:"trigger_interval" validate:"gte=0"`

	// TriggerBurst is the number of signals allowed back to back.
	TriggerBurst int `koanf:"trigger_burst" json:"trigger_burst" validate:"gte=1"`

	// DedupeSize is how many recorded event IDs are remembered.
	DedupeSize int `koanf:"dedupe_size" json:"dedupe_size" validate:"gte=1"`

	// DedupeTTL is how long a recorded event ID is remembered.
	DedupeTTL time.Duration `koanf:"dedupe_ttl" json:"dedupe_ttl" validate:"gt=0"`
}

// DefaultConfig returns the in-process transport defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Transport:        TransportGoChannel,
		Topic:            "interactions",
		BufferSize:       256,
		NATSURL:          "nats://127.0.0.1:4222",
		Host:             "127.0.0.1",
		Port:             4222,
		StoreDir:         "data/nats",
		QueueGroup:       "viewrec",
		DurableName:      "viewrec",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		TriggerInterval:  time.Minute,
		TriggerBurst:     1,
		DedupeSize:       100000,
		DedupeTTL:        24 * time.Hour,
	}
}

// Validate checks settings the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportGoChannel:
	case TransportNATS:
		if !c.EmbeddedServer && c.NATSURL == "" {
			return fmt.Errorf("events.nats_url is required without an embedded server")
		}
		if c.EmbeddedServer && c.StoreDir == "" {
			return fmt.Errorf("events.store_dir is required for the embedded server")
		}
	default:
		return fmt.Errorf("events.transport %q must be %s or %s", c.Transport, TransportGoChannel, TransportNATS)
	}
	if c.Topic == "" {
		return fmt.Errorf("events.topic is required")
	}
	return nil
}
