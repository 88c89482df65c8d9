// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors. All of them describe local validation failures; retrying
// the same call with the same input cannot succeed.
var (
	// ErrMalformedRecord is returned when an interaction record is missing a
	// field or carries an unusable signal value.
	ErrMalformedRecord = errors.New("malformed interaction record")

	// ErrInvalidFraction is returned when a held-out fraction is outside [0, 1].
	ErrInvalidFraction = errors.New("held-out fraction must be in [0, 1]")

	// ErrInvalidRank is returned when the latent factor rank is not positive.
	ErrInvalidRank = errors.New("rank must be positive")

	// ErrInvalidRegularization is returned for a negative regularization.
	ErrInvalidRegularization = errors.New("regularization must be non-negative")

	// ErrInvalidConfidence is returned for a negative confidence alpha.
	ErrInvalidConfidence = errors.New("confidence alpha must be non-negative")

	// ErrEmptyMatrix is returned when fitting is requested on a matrix with
	// no rows or no columns; gonum cannot hold zero-length factor matrices.
	ErrEmptyMatrix = errors.New("interaction matrix has no users or no items")

	// ErrUnknownUser is returned when ranking is requested for a user with no
	// row in the training matrix.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownItem is returned when an item label cannot be resolved and the
	// label policy is strict.
	ErrUnknownItem = errors.New("unknown item")

	// ErrModelNotReady is returned when no trained snapshot has been published.
	ErrModelNotReady = errors.New("model not trained")

	// ErrTrainingInProgress is returned when a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrInsufficientData is returned when the provider supplies fewer
	// interactions than the configured training minimum.
	ErrInsufficientData = errors.New("insufficient interactions")
)

// MalformedRecordError describes which record failed validation and why.
type MalformedRecordError struct {
	// Index is the position of the record in the input sequence.
	Index int

	// Field is the offending field name (user_id, item_id, signal).
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrMalformedRecord).
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// UnknownUserError reports the identifier that had no matrix row.
type UnknownUserError struct {
	UserID string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("unknown user %q", e.UserID)
}

// Unwrap allows errors.Is(err, ErrUnknownUser).
func (e *UnknownUserError) Unwrap() error {
	return ErrUnknownUser
}

// UnknownItemError reports the identifier whose label could not be resolved.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("no label for item %q", e.ItemID)
}

// Unwrap allows errors.Is(err, ErrUnknownItem).
func (e *UnknownItemError) Unwrap() error {
	return ErrUnknownItem
}
