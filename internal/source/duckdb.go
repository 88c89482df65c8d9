// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package source

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver registration
	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/metrics"
	"github.com/tomtom215/viewrec/internal/recommend"
)

// DB is a DuckDB-backed recommend.DataProvider.
type DB struct {
	conn   *sql.DB
	cfg    Config
	logger zerolog.Logger
}

// Open connects to DuckDB and creates the views and items tables if needed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source config: %w", err)
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for data directory
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := cfg.Path
	if cfg.Threads > 0 {
		dsn = fmt.Sprintf("%s?threads=%d", cfg.Path, cfg.Threads)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "source").Logger(),
	}
	if err := db.createTables(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db.logger.Info().Str("path", path).Msg("opened interaction database")

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) createTables(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id   VARCHAR NOT NULL,
			item_id   VARCHAR NOT NULL,
			signal    DOUBLE NOT NULL DEFAULT 1,
			viewed_at TIMESTAMP DEFAULT current_timestamp
		)`, db.cfg.ViewsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			item_id VARCHAR PRIMARY KEY,
			label   VARCHAR
		)`, db.cfg.ItemsTable),
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Interactions returns every view row in insertion order.
func (db *DB) Interactions(ctx context.Context) (interactions []recommend.Interaction, err error) {
	defer observeQuery("interactions", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT user_id, item_id, signal
		FROM %s
		ORDER BY rowid
	`, db.cfg.ViewsTable)

	ctx, cancel := context.WithTimeout(ctx, db.cfg.QueryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec recommend.Interaction
		if err := rows.Scan(&rec.UserID, &rec.ItemID, &rec.Signal); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	return interactions, nil
}

// ItemLabels returns the item display-name table. Items with a NULL label
// are left out.
func (db *DB) ItemLabels(ctx context.Context) (_ recommend.Labels, err error) {
	defer observeQuery("item_labels", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT item_id, label
		FROM %s
		WHERE label IS NOT NULL
	`, db.cfg.ItemsTable)

	ctx, cancel := context.WithTimeout(ctx, db.cfg.QueryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query item labels: %w", err)
	}
	defer rows.Close()

	labels := make(recommend.Labels)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan item label: %w", err)
		}
		labels[id] = label
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item labels: %w", err)
	}

	return labels, nil
}

// CountInteractions returns the number of view rows.
func (db *DB) CountInteractions(ctx context.Context) (_ int64, err error) {
	defer observeQuery("count", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, db.cfg.QueryTimeout)
	defer cancel()

	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, db.cfg.ViewsTable)
	if err := db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return count, nil
}

// RecordInteraction appends one view row.
func (db *DB) RecordInteraction(ctx context.Context, rec recommend.Interaction) error {
	if rec.UserID == "" || rec.ItemID == "" {
		return fmt.Errorf("%w: user_id and item_id are required", recommend.ErrMalformedRecord)
	}
	if math.IsNaN(rec.Signal) || math.IsInf(rec.Signal, 0) || rec.Signal < 0 {
		return fmt.Errorf("%w: signal must be finite and non-negative, got %v", recommend.ErrMalformedRecord, rec.Signal)
	}

	query := fmt.Sprintf(`INSERT INTO %s (user_id, item_id, signal) VALUES (?, ?, ?)`, db.cfg.ViewsTable)
	if _, err := db.conn.ExecContext(ctx, query, rec.UserID, rec.ItemID, rec.Signal); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// UpsertItem sets the display label of an item.
func (db *DB) UpsertItem(ctx context.Context, itemID, label string) error {
	if itemID == "" {
		return fmt.Errorf("item_id is required")
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (item_id, label) VALUES (?, ?)`, db.cfg.ItemsTable)
	if _, err := db.conn.ExecContext(ctx, query, itemID, label); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func observeQuery(operation string, start time.Time, err *error) {
	metrics.RecordSourceQuery(operation, time.Since(start), *err)
}
