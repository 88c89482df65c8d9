// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

// Package recommend implements implicit-feedback product recommendations
// with confidence-weighted alternating least squares.
//
// # Pipeline
//
// A training run flows through five pure stages:
//
//   - BuildMatrix folds raw (user, item, signal) records into a sparse
//     users x items InteractionMatrix plus an Index mapping identifiers to
//     positions. Duplicate pairs accumulate.
//   - SplitMatrix withholds a seeded fraction of nonzero cells for
//     evaluation and reports which users were altered.
//   - FitALS factorizes the training matrix into user and item factors.
//   - Recommend scores every item for a user, min-max scales the scores,
//     zeroes items the user already has signal for and returns the top n.
//   - IsRetrainDue decides from a total interaction count whether a new
//     run should start. The interval grows with the corpus.
//
// Evaluate adds a held-out ROC-AUC report for the model and a popularity
// baseline.
//
// # Design Principles
//
//   - Deterministic: identical records, seeds and parameters produce
//     bit-identical indices, matrices and factors
//   - Immutable: matrices and factors are never modified after creation
//   - No process-wide state: every input is an explicit argument
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, provider, logger,
//	    recommend.WithSnapshotStore(store))
//
//	if err := engine.Train(ctx); err != nil {
//	    return err
//	}
//
//	recs, err := engine.Recommend(ctx, "visitor-42", 10)
//
// # Thread Safety
//
// The Engine is safe for concurrent use. Training holds an exclusive lock for
// its whole run; a concurrent Train returns ErrTrainingInProgress. Published
// snapshots are swapped atomically, so a ranking request always sees one
// complete (index, matrix, factors) set even while a newer one is published.
//
// # References
//
//   - Hu, Koren, Volinsky. "Collaborative Filtering for Implicit Feedback
//     Datasets." ICDM 2008.
package recommend
