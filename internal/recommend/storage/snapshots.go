// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	metaKeyPrefix = "snapshot:meta:"
	dataKeyPrefix = "snapshot:data:"
)

// ErrNotFound is returned when a requested snapshot version does not exist.
var ErrNotFound = errors.New("snapshot not found")

// ErrChecksumMismatch is returned when a stored payload fails verification.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Metadata describes one stored snapshot.
type Metadata struct {
	// Version is the engine's snapshot version.
	Version int `json:"version"`

	// TrainedAt is when the factors were fit.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`

	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`
	NonZero   int `json:"nonzero"`
	Rank      int `json:"rank"`

	// Checksum is the SHA-256 of the compressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// record is the serialized form of a recommend.Snapshot.
type record struct {
	Version    int                   `json:"version"`
	TrainedAt  time.Time             `json:"trained_at"`
	Users      []string              `json:"users"`
	Items      []string              `json:"items"`
	Train      recommend.MatrixData  `json:"train"`
	Factors    recommend.FactorsData `json:"factors"`
	Labels     map[string]string     `json:"labels,omitempty"`
	Evaluation *recommend.Evaluation `json:"evaluation,omitempty"`
}

// Store implements recommend.SnapshotStore on top of BadgerDB.
type Store struct {
	db     *badger.DB
	owned  bool
	retain int
	logger zerolog.Logger
}

// Open opens (or creates) a BadgerDB at dir and returns a Store that owns it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(dir string, retain int, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}

	s := NewStore(db, retain, logger)
	s.owned = true
	return s, nil
}

// NewStore wraps an already open database. The caller keeps ownership.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(db *badger.DB, retain int, logger zerolog.Logger) *Store {
	if retain < 0 {
		retain = 0
	}
	return &Store{
		db:     db,
		retain: retain,
		logger: logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Close closes the database if the Store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Save persists snap and prunes versions beyond the retention limit.
func (s *Store) Save(ctx context.Context, snap *recommend.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.Index == nil || snap.Train == nil || snap.Factors == nil {
		return fmt.Errorf("incomplete snapshot")
	}

	rec := record{
		Version:    snap.Version,
		TrainedAt:  snap.TrainedAt,
		Users:      snap.Index.Users(),
		Items:      snap.Index.Items(),
		Train:      snap.Train.Data(),
		Factors:    snap.Factors.Data(),
		Labels:     snap.Labels,
		Evaluation: snap.Evaluation,
	}

	payload, err := encode(&rec)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(payload)
	users, items := snap.Train.Dims()
	meta := Metadata{
		Version:   snap.Version,
		TrainedAt: snap.TrainedAt,
		SavedAt:   time.Now().UTC(),
		UserCount: users,
		ItemCount: items,
		NonZero:   snap.Train.NNZ(),
		Rank:      snap.Factors.Rank(),
		Checksum:  hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(payload)),
	}
	metaBytes, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKey(snap.Version), payload); err != nil {
			return fmt.Errorf("set snapshot data: %w", err)
		}
		if err := txn.Set(metaKey(snap.Version), metaBytes); err != nil {
			return fmt.Errorf("set snapshot metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Int("version", meta.Version).
		Int64("size_bytes", meta.SizeBytes).
		Msg("snapshot saved")

	if s.retain > 0 {
		if _, err := s.Prune(ctx, s.retain); err != nil {
			s.logger.Warn().Err(err).Msg("failed to prune old snapshots")
		}
	}
	return nil
}

// Latest returns the newest stored snapshot. An empty store yields an
// error wrapping recommend.ErrModelNotReady.
func (s *Store) Latest(ctx context.Context) (*recommend.Snapshot, error) {
	metas, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("no stored snapshots: %w", recommend.ErrModelNotReady)
	}
	return s.Load(ctx, metas[len(metas)-1].Version)
}

// LatestVersion returns the highest stored version, or 0 when the store
// is empty.
func (s *Store) LatestVersion(ctx context.Context) (int, error) {
	metas, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(metas) == 0 {
		return 0, nil
	}
	return metas[len(metas)-1].Version, nil
}

// Load returns the snapshot stored under version.
func (s *Store) Load(ctx context.Context, version int) (*recommend.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meta Metadata
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("version %d: %w", version, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get snapshot metadata: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("unmarshal metadata: %w", err)
		}

		item, err = txn.Get(dataKey(version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("version %d data: %w", version, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get snapshot data: %w", err)
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != meta.Checksum {
		return nil, fmt.Errorf("version %d: %w", version, ErrChecksumMismatch)
	}

	var rec record
	if err := decode(payload, &rec); err != nil {
		return nil, fmt.Errorf("version %d: %w", version, err)
	}
	return rec.snapshot()
}

// List returns metadata for every stored snapshot, oldest first.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var metas []Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta Metadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("unmarshal metadata %s: %w", it.Item().Key(), err)
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return metas, nil
}

// Prune deletes all but the newest keep snapshots and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	metas, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(metas) <= keep {
		return 0, nil
	}

	stale := metas[:len(metas)-keep]
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, m := range stale {
			if err := txn.Delete(metaKey(m.Version)); err != nil {
				return fmt.Errorf("delete metadata v%d: %w", m.Version, err)
			}
			if err := txn.Delete(dataKey(m.Version)); err != nil {
				return fmt.Errorf("delete data v%d: %w", m.Version, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Int("removed", len(stale)).Int("kept", keep).Msg("pruned snapshots")
	return len(stale), nil
}

func (r *record) snapshot() (*recommend.Snapshot, error) {
	index, err := recommend.NewIndex(r.Users, r.Items)
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	train, err := recommend.MatrixFromData(r.Train)
	if err != nil {
		return nil, fmt.Errorf("rebuild matrix: %w", err)
	}
	factors, err := recommend.FactorsFromData(r.Factors)
	if err != nil {
		return nil, fmt.Errorf("rebuild factors: %w", err)
	}

	rows, cols := train.Dims()
	fu, _ := factors.Users.Dims()
	fi, _ := factors.Items.Dims()
	if rows != index.NumUsers() || cols != index.NumItems() || fu != rows || fi != cols {
		return nil, fmt.Errorf("inconsistent snapshot shapes: index %dx%d, matrix %dx%d, factors %dx%d",
			index.NumUsers(), index.NumItems(), rows, cols, fu, fi)
	}

	return &recommend.Snapshot{
		Version:    r.Version,
		TrainedAt:  r.TrainedAt,
		Index:      index,
		Train:      train,
		Factors:    factors,
		Labels:     recommend.Labels(r.Labels),
		Evaluation: r.Evaluation,
	}, nil
}

func encode(rec *record) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(rec); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(payload []byte, rec *record) error {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

func metaKey(version int) []byte {
	return []byte(fmt.Sprintf("%s%020d", metaKeyPrefix, version))
}

func dataKey(version int) []byte {
	return []byte(fmt.Sprintf("%s%020d", dataKeyPrefix, version))
}
