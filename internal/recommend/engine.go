// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/cache"
)

// Engine trains snapshots from a DataProvider and serves ranked lists from
// the current one. It is safe for concurrent use.
//
// Readers load the current snapshot pointer once per request and keep using
// it even if a newer snapshot is published meanwhile.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider
	store    SnapshotStore
	observer Observer

	current atomic.Pointer[Snapshot]

	// trainMu is held for the whole training run
	trainMu sync.Mutex

	statusMu sync.RWMutex
	status   TrainingStatus

	lists *cache.LRU[listKey, []Recommendation]

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// listKey identifies one cached ranked list.
type listKey struct {
	version int
	userID  string
	n       int
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithSnapshotStore persists every published snapshot and enables Restore.
func WithSnapshotStore(store SnapshotStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithObserver reports training and ranking events to o.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}

	e := &Engine{
		config:   cfg.Clone(),
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.Cache.Enabled {
		e.lists = cache.NewLRU[listKey, []Recommendation](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	return e, nil
}

// Train rebuilds the matrix from the provider, fits a new model and
// publishes it. A second call while one is running returns
// ErrTrainingInProgress immediately.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With().Str("run_id", runID).Logger()

	e.setTraining(true)
	logger.Info().Msg("starting model training")

	snap, err := e.train(ctx, logger)

	duration := time.Since(start)
	e.finishTraining(snap, duration, err)
	e.observer.TrainingFinished(duration, err)

	if err != nil {
		logger.Error().Err(err).Dur("duration", duration).Msg("model training failed")
		return err
	}

	logger.Info().
		Int("version", snap.Version).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("model training complete")

	return nil
}

func (e *Engine) train(ctx context.Context, logger zerolog.Logger) (*Snapshot, error) {
	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	records, labels, err := e.loadTrainingData(trainCtx)
	if err != nil {
		return nil, err
	}

	var buildOpts []BuildOption
	if e.config.Training.SortedIndex {
		buildOpts = append(buildOpts, WithSortedIndex())
	}
	matrix, index, err := BuildMatrix(records, buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	users, items := matrix.Dims()
	logger.Info().
		Int("interactions", len(records)).
		Int("users", users).
		Int("items", items).
		Int("nonzero", matrix.NNZ()).
		Msg("built interaction matrix")

	split, err := SplitMatrix(matrix, e.config.Split.Fraction, e.config.Split.Seed)
	if err != nil {
		return nil, fmt.Errorf("split matrix: %w", err)
	}

	factors, err := FitALS(trainCtx, split.Train, e.config.Model)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	var eval *Evaluation
	if e.config.Training.Evaluate && len(split.AlteredUsers) > 0 {
		eval, err = Evaluate(split, factors)
		if err != nil {
			// evaluation is informational; the model is still usable
			logger.Warn().Err(err).Msg("held-out evaluation failed")
		} else {
			logger.Info().
				Int("users", eval.Users).
				Float64("model_auc", eval.ModelAUC).
				Float64("popularity_auc", eval.PopularityAUC).
				Msg("held-out evaluation")
		}
	}

	version := e.nextVersion(ctx, logger)

	snap := &Snapshot{
		Version:    version,
		TrainedAt:  time.Now().UTC(),
		Index:      index,
		Train:      split.Train,
		Factors:    factors,
		Labels:     labels,
		Evaluation: eval,
	}

	e.publish(snap)

	if e.store != nil {
		if err := e.store.Save(ctx, snap); err != nil {
			// the in-memory snapshot is already serving
			logger.Warn().Err(err).Int("version", version).Msg("failed to persist snapshot")
		}
	}

	e.setDataStats(len(records), users, items)
	return snap, nil
}

// nextVersion follows both the serving snapshot and the newest persisted
// one, so a process that never restored still saves after the store's head.
func (e *Engine) nextVersion(ctx context.Context, logger zerolog.Logger) int {
	version := 0
	if prev := e.current.Load(); prev != nil {
		version = prev.Version
	}
	if e.store != nil {
		stored, err := e.store.LatestVersion(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read latest persisted version")
		} else if stored > version {
			version = stored
		}
	}
	return version + 1
}

// loadTrainingData fetches records and labels and applies the minimum
// interaction gate.
func (e *Engine) loadTrainingData(ctx context.Context) ([]Interaction, Labels, error) {
	records, err := e.provider.Interactions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get interactions: %w", err)
	}

	if len(records) < e.config.Training.MinInteractions {
		return nil, nil, fmt.Errorf("%w: %d < %d", ErrInsufficientData, len(records), e.config.Training.MinInteractions)
	}

	labels, err := e.provider.ItemLabels(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get item labels: %w", err)
	}

	return records, labels, nil
}

// publish makes snap current and drops every cached list.
func (e *Engine) publish(snap *Snapshot) {
	e.current.Store(snap)
	if e.lists != nil {
		e.lists.Clear()
	}
	e.observer.SnapshotPublished(snap)
}

// Restore loads the newest persisted snapshot and makes it current.
// It returns ErrModelNotReady (wrapped) when the store is empty or absent.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("no snapshot store configured: %w", ErrModelNotReady)
	}

	snap, err := e.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.publish(snap)

	users, items := snap.Train.Dims()
	e.statusMu.Lock()
	e.status.ModelVersion = snap.Version
	e.status.LastTrainedAt = snap.TrainedAt
	e.status.UserCount = users
	e.status.ItemCount = items
	e.statusMu.Unlock()

	e.logger.Info().
		Int("version", snap.Version).
		Time("trained_at", snap.TrainedAt).
		Msg("restored model snapshot")

	return nil
}

// Snapshot returns the current snapshot, or nil before the first one.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Recommend returns up to n unseen items for userID from the current
// snapshot. n <= 0 selects the configured default; n is capped at the
// configured maximum.
func (e *Engine) Recommend(ctx context.Context, userID string, n int) ([]Recommendation, error) {
	start := time.Now()
	e.requestCount.Add(1)

	recs, hit, err := e.recommend(ctx, userID, n)
	e.observer.Ranked(time.Since(start), hit, err)
	if err != nil {
		e.errorCount.Add(1)
	}
	return recs, err
}

func (e *Engine) recommend(ctx context.Context, userID string, n int) ([]Recommendation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	snap := e.current.Load()
	if snap == nil {
		return nil, false, ErrModelNotReady
	}

	n = e.config.clampN(n)
	key := listKey{version: snap.Version, userID: userID, n: n}

	if e.lists != nil {
		if cached, ok := e.lists.Get(key); ok {
			return copyRecommendations(cached), true, nil
		}
	}

	recs, err := Recommend(userID, snap.Train, snap.Index, snap.Factors, snap.Labels, n,
		RankOptions{LabelPolicy: e.config.Ranking.LabelPolicy})
	if err != nil {
		return nil, false, err
	}

	if e.lists != nil {
		e.lists.Add(key, copyRecommendations(recs))
	}

	e.logger.Debug().
		Str("user_id", userID).
		Int("n", n).
		Int("returned", len(recs)).
		Int("version", snap.Version).
		Msg("recommendation complete")

	return recs, false, nil
}

// RecommendAll ranks every user of the current snapshot in row order.
// Users whose ranking fails under a strict label policy are skipped and
// logged.
func (e *Engine) RecommendAll(ctx context.Context, n int) (map[string][]Recommendation, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrModelNotReady
	}

	n = e.config.clampN(n)
	opts := RankOptions{LabelPolicy: e.config.Ranking.LabelPolicy}
	out := make(map[string][]Recommendation, snap.Index.NumUsers())

	for row := 0; row < snap.Index.NumUsers(); row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		userID := snap.Index.UserAt(row)
		recs, err := Recommend(userID, snap.Train, snap.Index, snap.Factors, snap.Labels, n, opts)
		if err != nil {
			if errors.Is(err, ErrUnknownItem) {
				e.logger.Warn().Err(err).Str("user_id", userID).Msg("skipping user")
				continue
			}
			return nil, err
		}
		out[userID] = recs
	}

	return out, nil
}

// ViewedItems lists what userID interacted with in the current snapshot's
// training matrix.
func (e *Engine) ViewedItems(userID string) ([]ViewedItem, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrModelNotReady
	}
	return ViewedItems(userID, snap.Train, snap.Index, snap.Labels)
}

// CheckRetrain asks the provider for the total interaction count and
// reports whether it lands on a retrain boundary.
func (e *Engine) CheckRetrain(ctx context.Context) (due bool, count int64, err error) {
	count, err = e.provider.CountInteractions(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("count interactions: %w", err)
	}
	return IsRetrainDue(count), count, nil
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Counters returns the request and error totals since start.
func (e *Engine) Counters() (requests, errs int64) {
	return e.requestCount.Load(), e.errorCount.Load()
}

// ClearCache drops every cached ranked list.
func (e *Engine) ClearCache() {
	if e.lists != nil {
		e.lists.Clear()
		e.logger.Debug().Msg("cache cleared")
	}
}

// CacheStats returns ranked-list cache counters; zero when caching is off.
func (e *Engine) CacheStats() cache.Stats {
	if e.lists == nil {
		return cache.Stats{}
	}
	return e.lists.Stats()
}

func (e *Engine) setTraining(active bool) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = active
	if active {
		e.status.LastError = ""
	}
}

func (e *Engine) setDataStats(interactions, users, items int) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.InteractionCount = interactions
	e.status.UserCount = users
	e.status.ItemCount = items
}

func (e *Engine) finishTraining(snap *Snapshot, duration time.Duration, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.IsTraining = false
	e.status.LastTrainingDurationMS = duration.Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
		return
	}
	e.status.LastTrainedAt = snap.TrainedAt
	e.status.ModelVersion = snap.Version
}

func copyRecommendations(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}

type nopObserver struct{}

func (nopObserver) TrainingFinished(time.Duration, error) {}
func (nopObserver) SnapshotPublished(*Snapshot)           {}
func (nopObserver) Ranked(time.Duration, bool, error)     {}
