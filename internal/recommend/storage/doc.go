// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

// Package storage persists published recommendation snapshots in BadgerDB.
//
// A snapshot (index, training matrix, factors, labels and evaluation) is
// JSON encoded, gzip compressed and written under a versioned key together
// with a small metadata record. The metadata carries a SHA-256 checksum of
// the compressed payload, verified on every load.
//
// # Key Layout
//
//	snapshot:meta:{version:020d}  ->  Metadata (JSON)
//	snapshot:data:{version:020d}  ->  gzip(JSON snapshot)
//
// Zero-padded versions make badger's lexicographic key order equal to
// version order, so the latest snapshot is the last meta key.
//
// # Retention
//
// Store keeps the newest Retain versions; older ones are pruned after every
// Save. A Retain of zero keeps everything.
//
// # Usage
//
//	store, err := storage.Open(dir, 3, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	engine, err := recommend.NewEngine(cfg, provider, logger,
//	    recommend.WithSnapshotStore(store))
package storage
