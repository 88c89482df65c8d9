// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"context"
	"time"
)

// Interaction is one raw implicit-feedback record.
// Multiple records for the same (user, item) pair accumulate.
type Interaction struct {
	// UserID is the opaque user identifier.
	UserID string `json:"user_id"`

	// ItemID is the opaque item identifier.
	ItemID string `json:"item_id"`

	// Signal is the non-negative interaction weight (e.g. number of views).
	Signal float64 `json:"signal"`
}

// Recommendation is one entry of a ranked list.
type Recommendation struct {
	// ItemID is the recommended item.
	ItemID string `json:"item_id"`

	// Label is the display name resolved from the item lookup.
	// Empty when the lookup had no entry and the label policy omits it.
	Label string `json:"label,omitempty"`

	// Score is the min-max scaled affinity (0-1, higher is better).
	Score float64 `json:"score"`
}

// ItemLookup resolves read-only display labels for items.
type ItemLookup interface {
	Lookup(itemID string) (label string, ok bool)
}

// Labels is a static ItemLookup backed by a map.
type Labels map[string]string

// Lookup implements ItemLookup.
func (l Labels) Lookup(itemID string) (string, bool) {
	label, ok := l[itemID]
	return label, ok
}

// LabelPolicy controls what happens when an item label cannot be resolved.
type LabelPolicy int

const (
	// LabelOmit leaves the label empty and keeps the recommendation.
	LabelOmit LabelPolicy = iota
	// LabelStrict fails the ranking request with an UnknownItemError.
	LabelStrict
)

// String returns the configuration name of the policy.
func (p LabelPolicy) String() string {
	switch p {
	case LabelOmit:
		return "omit"
	case LabelStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseLabelPolicy converts a configuration string to a LabelPolicy.
// Unrecognized values map to LabelOmit.
func ParseLabelPolicy(s string) LabelPolicy {
	if s == "strict" {
		return LabelStrict
	}
	return LabelOmit
}

// DataProvider supplies interaction records and item metadata.
// It is implemented by the source layer; the core never persists records.
type DataProvider interface {
	// Interactions returns the raw interaction records in a stable order.
	Interactions(ctx context.Context) ([]Interaction, error)

	// ItemLabels returns the item display-name table.
	ItemLabels(ctx context.Context) (Labels, error)

	// CountInteractions returns the total number of recorded interactions.
	CountInteractions(ctx context.Context) (int64, error)
}

// Snapshot is one published model: the index, the training matrix the
// factors were fit on, and the factors themselves. A Snapshot is never
// mutated after publication.
type Snapshot struct {
	// Version increases by one with each published snapshot.
	Version int `json:"version"`

	// TrainedAt is when fitting completed.
	TrainedAt time.Time `json:"trained_at"`

	// Index maps external identifiers to matrix positions.
	Index *Index `json:"-"`

	// Train is the matrix the factors were fit on.
	Train *InteractionMatrix `json:"-"`

	// Factors are the fitted user and item factors.
	Factors *Factors `json:"-"`

	// Labels is the item display-name table loaded with the records.
	Labels Labels `json:"-"`

	// Evaluation is the held-out quality report, if computed.
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// SnapshotStore persists published snapshots across restarts.
type SnapshotStore interface {
	// Save persists s. Implementations may prune older versions.
	Save(ctx context.Context, s *Snapshot) error

	// Latest returns the newest persisted snapshot, or an error wrapping
	// ErrModelNotReady when none exists.
	Latest(ctx context.Context) (*Snapshot, error)

	// LatestVersion returns the highest persisted version, or 0 when the
	// store is empty.
	LatestVersion(ctx context.Context) (int, error)
}

// Observer receives engine events for instrumentation.
type Observer interface {
	// TrainingFinished is called after every training attempt.
	TrainingFinished(duration time.Duration, err error)

	// SnapshotPublished is called when a new snapshot becomes current.
	SnapshotPublished(s *Snapshot)

	// Ranked is called after every ranking request.
	Ranked(duration time.Duration, cacheHit bool, err error)
}

// TrainingStatus reports the engine's training state.
type TrainingStatus struct {
	// IsTraining indicates whether training is currently in progress.
	IsTraining bool `json:"is_training"`

	// LastTrainedAt is when training last completed.
	LastTrainedAt time.Time `json:"last_trained_at"`

	// LastTrainingDurationMS is how long the last training took.
	LastTrainingDurationMS int64 `json:"last_training_duration_ms"`

	// LastError contains the last training error, if any.
	LastError string `json:"last_error,omitempty"`

	// InteractionCount is the number of records in the last training set.
	InteractionCount int `json:"interaction_count"`

	// UserCount is the number of matrix rows.
	UserCount int `json:"user_count"`

	// ItemCount is the number of matrix columns.
	ItemCount int `json:"item_count"`

	// ModelVersion is the currently published snapshot version.
	ModelVersion int `json:"model_version"`
}
