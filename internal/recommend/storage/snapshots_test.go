// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/recommend"
)

func openTestStore(t *testing.T, retain int) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), retain, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func testSnapshot(t *testing.T, version int) *recommend.Snapshot {
	t.Helper()
	records := []recommend.Interaction{
		{UserID: "alice", ItemID: "lamp", Signal: 2},
		{UserID: "alice", ItemID: "desk", Signal: 1},
		{UserID: "bob", ItemID: "desk", Signal: 3},
		{UserID: "carol", ItemID: "chair", Signal: 1},
	}
	m, idx, err := recommend.BuildMatrix(records)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	users, items := m.Dims()

	return &recommend.Snapshot{
		Version:    version,
		TrainedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Index:      idx,
		Train:      m,
		Factors:    recommend.InitFactors(users, items, 3, int64(version)),
		Labels:     recommend.Labels{"lamp": "Desk Lamp", "desk": "Standing Desk"},
		Evaluation: &recommend.Evaluation{Users: 2, ModelAUC: 0.8, PopularityAUC: 0.6},
	}
}

func TestStore_SaveAndLatest(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	want := testSnapshot(t, 1)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}

	if got.Version != 1 || !got.TrainedAt.Equal(want.TrainedAt) {
		t.Errorf("got version %d trained %v", got.Version, got.TrainedAt)
	}
	if !got.Train.Equal(want.Train) {
		t.Error("training matrix differs after round trip")
	}
	if !got.Factors.Equal(want.Factors) {
		t.Error("factors differ after round trip")
	}
	for i := 0; i < want.Index.NumUsers(); i++ {
		if got.Index.UserAt(i) != want.Index.UserAt(i) {
			t.Errorf("UserAt(%d) = %q, want %q", i, got.Index.UserAt(i), want.Index.UserAt(i))
		}
	}
	if got.Labels["lamp"] != "Desk Lamp" {
		t.Errorf("label lamp = %q", got.Labels["lamp"])
	}
	if got.Evaluation == nil || *got.Evaluation != *want.Evaluation {
		t.Errorf("Evaluation = %+v, want %+v", got.Evaluation, want.Evaluation)
	}
}

func TestStore_LatestEmpty(t *testing.T) {
	store := openTestStore(t, 0)

	_, err := store.Latest(context.Background())
	if !errors.Is(err, recommend.ErrModelNotReady) {
		t.Errorf("Latest() error = %v, want ErrModelNotReady", err)
	}
}

func TestStore_LatestPicksHighestVersion(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	// version 10 sorts after 9 only with zero padding
	for _, v := range []int{2, 10, 9} {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.Version != 10 {
		t.Errorf("Latest().Version = %d, want 10", got.Version)
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []int{2, 9, 10}
	if len(metas) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(metas), len(want))
	}
	for i, m := range metas {
		if m.Version != want[i] {
			t.Errorf("metas[%d].Version = %d, want %d", i, m.Version, want[i])
		}
		if m.Checksum == "" || m.SizeBytes == 0 || m.Rank != 3 {
			t.Errorf("incomplete metadata: %+v", m)
		}
	}
}

func TestStore_Retention(t *testing.T) {
	store := openTestStore(t, 2)
	ctx := context.Background()

	for v := 1; v <= 4; v++ {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 || metas[0].Version != 3 || metas[1].Version != 4 {
		t.Errorf("List() = %+v, want versions 3 and 4", metas)
	}

	if _, err := store.Load(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(1) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	removed, err := store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}

	removed, err = store.Prune(ctx, 5)
	if err != nil || removed != 0 {
		t.Errorf("Prune(5) = %d, %v; want 0, nil", removed, err)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if err := store.Save(ctx, testSnapshot(t, 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dataKey(1), []byte("corrupted"))
	})
	if err != nil {
		t.Fatalf("corrupt data: %v", err)
	}

	if _, err := store.Load(ctx, 1); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestStore_SaveRejectsIncompleteSnapshot(t *testing.T) {
	store := openTestStore(t, 0)

	if err := store.Save(context.Background(), &recommend.Snapshot{Version: 1}); err == nil {
		t.Error("expected error for snapshot without factors")
	}
}

func TestStore_EngineRestore(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if err := store.Save(ctx, testSnapshot(t, 7)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	engine, err := recommend.NewEngine(nil, emptyProvider{}, zerolog.Nop(), recommend.WithSnapshotStore(store))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if err := engine.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	recs, err := engine.Recommend(ctx, "carol", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Recommend() returned %d items, want 2", len(recs))
	}
	for _, r := range recs {
		if r.ItemID == "chair" {
			t.Error("recommended an item carol already viewed")
		}
	}
}

type emptyProvider struct{}

func (emptyProvider) Interactions(context.Context) ([]recommend.Interaction, error) {
	return nil, nil
}

func (emptyProvider) ItemLabels(context.Context) (recommend.Labels, error) {
	return nil, nil
}

func (emptyProvider) CountInteractions(context.Context) (int64, error) {
	return 0, nil
}

func TestStore_LatestVersion(t *testing.T) {
	store := openTestStore(t, 3)
	ctx := context.Background()

	got, err := store.LatestVersion(ctx)
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if got != 0 {
		t.Errorf("LatestVersion() on empty store = %d, want 0", got)
	}

	for _, v := range []int{1, 2, 11} {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(%d) error = %v", v, err)
		}
	}
	got, err = store.LatestVersion(ctx)
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if got != 11 {
		t.Errorf("LatestVersion() = %d, want 11", got)
	}
}

// recordsProvider serves a fixed record set.
type recordsProvider struct {
	records []recommend.Interaction
}

func (p recordsProvider) Interactions(context.Context) ([]recommend.Interaction, error) {
	return p.records, nil
}

func (p recordsProvider) ItemLabels(context.Context) (recommend.Labels, error) {
	return nil, nil
}

func (p recordsProvider) CountInteractions(context.Context) (int64, error) {
	return int64(len(p.records)), nil
}

func TestStore_FreshEngineSavesAfterStoredVersions(t *testing.T) {
	store := openTestStore(t, 3)
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(%d) error = %v", v, err)
		}
	}

	cfg := recommend.DefaultConfig()
	cfg.Training.MinInteractions = 1
	cfg.Split.Fraction = 0
	cfg.Model.Rank = 2
	cfg.Model.Iterations = 2
	provider := recordsProvider{records: []recommend.Interaction{
		{UserID: "dave", ItemID: "lamp", Signal: 1},
		{UserID: "erin", ItemID: "desk", Signal: 2},
		{UserID: "frank", ItemID: "chair", Signal: 1},
		{UserID: "frank", ItemID: "lamp", Signal: 1},
	}}

	engine, err := recommend.NewEngine(cfg, provider, zerolog.Nop(), recommend.WithSnapshotStore(store))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if err := engine.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if got := engine.Snapshot().Version; got != 4 {
		t.Errorf("trained version = %d, want 4", got)
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.Version != 4 {
		t.Errorf("Latest() version = %d, want 4", latest.Version)
	}
	if _, ok := latest.Index.UserRow("dave"); !ok {
		t.Error("Latest() should hold the newly trained model")
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 3 || metas[0].Version != 2 {
		t.Errorf("retained versions = %+v, want 2..4", metas)
	}
}
