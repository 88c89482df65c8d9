// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package events

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/viewrec/internal/recommend"
)

// MsgIDHeader is the JetStream deduplication header. The gochannel
// transport ignores it.
const MsgIDHeader = "Nats-Msg-Id"

// ErrMalformedEvent is returned for payloads that cannot become an interaction.
var ErrMalformedEvent = errors.New("malformed interaction event")

// InteractionEvent records that a user interacted with an item.
type InteractionEvent struct {
	// EventID uniquely identifies the event across redeliveries.
	EventID string `json:"event_id"`

	UserID string  `json:"user_id"`
	ItemID string  `json:"item_id"`
	Signal float64 `json:"signal"`

	// OccurredAt is when the interaction happened at the producer.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewInteractionEvent creates an event with a fresh ID. A zero signal
// defaults to one view.
func NewInteractionEvent(userID, itemID string, signal float64) *InteractionEvent {
	if signal == 0 {
		signal = 1
	}
	return &InteractionEvent{
		EventID:    uuid.New().String(),
		UserID:     userID,
		ItemID:     itemID,
		Signal:     signal,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate checks the event can be recorded.
func (e *InteractionEvent) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrMalformedEvent)
	case e.UserID == "":
		return fmt.Errorf("%w: user_id is required", ErrMalformedEvent)
	case e.ItemID == "":
		return fmt.Errorf("%w: item_id is required", ErrMalformedEvent)
	case e.Signal < 0 || math.IsNaN(e.Signal) || math.IsInf(e.Signal, 0):
		return fmt.Errorf("%w: signal %v must be finite and non-negative", ErrMalformedEvent, e.Signal)
	}
	return nil
}

// Interaction converts the event to a matrix record.
func (e *InteractionEvent) Interaction() recommend.Interaction {
	return recommend.Interaction{UserID: e.UserID, ItemID: e.ItemID, Signal: e.Signal}
}

// ToMessage encodes the event as a watermill message whose UUID is the
// event ID.
func (e *InteractionEvent) ToMessage() (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(e.EventID, payload)
	msg.Metadata.Set(MsgIDHeader, e.EventID)
	msg.Metadata.Set("user_id", e.UserID)
	return msg, nil
}

// FromMessage decodes and validates an event payload. A missing event ID
// falls back to the message UUID.
func FromMessage(msg *message.Message) (*InteractionEvent, error) {
	var e InteractionEvent
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if e.EventID == "" {
		e.EventID = msg.UUID
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
