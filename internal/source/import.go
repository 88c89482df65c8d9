// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package source

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Accepted CSV header names, in order of preference.
var (
	userColumns   = []string{"user_id", "user_name", "visitorid", "user"}
	itemColumns   = []string{"item_id", "product_id", "itemid", "product"}
	signalColumns = []string{"signal", "viewcount", "views", "count"}
	idColumns     = []string{"item_id", "id", "product_id"}
	labelColumns  = []string{"label", "name", "title"}
)

// ImportViewsCSV appends every row of a CSV file with a header to the
// views table and returns the number of rows loaded. A user and an item
// column are required; rows without a signal column get signal 1. Rows
// with an empty user or item are skipped.
func (db *DB) ImportViewsCSV(ctx context.Context, path string) (int64, error) {
	src, err := csvSource(path)
	if err != nil {
		return 0, err
	}

	columns, err := db.csvColumns(ctx, src)
	if err != nil {
		return 0, err
	}

	userCol, ok := pickColumn(columns, userColumns)
	if !ok {
		return 0, fmt.Errorf("views csv %s: no user column (want one of %s)", path, strings.Join(userColumns, ", "))
	}
	itemCol, ok := pickColumn(columns, itemColumns)
	if !ok {
		return 0, fmt.Errorf("views csv %s: no item column (want one of %s)", path, strings.Join(itemColumns, ", "))
	}

	signalExpr := "1.0"
	if signalCol, ok := pickColumn(columns, signalColumns); ok {
		signalExpr = fmt.Sprintf("CAST(%s AS DOUBLE)", quoteIdent(signalCol))

		var invalid int64
		check := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s IS NULL OR %s < 0 OR isnan(%s)`,
			src, signalExpr, signalExpr, signalExpr)
		if err := db.conn.QueryRowContext(ctx, check).Scan(&invalid); err != nil {
			return 0, fmt.Errorf("validate signals in %s: %w", path, err)
		}
		if invalid > 0 {
			return 0, fmt.Errorf("views csv %s: %d rows have a missing, negative or NaN signal", path, invalid)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, item_id, signal)
		SELECT CAST(%s AS VARCHAR), CAST(%s AS VARCHAR), %s
		FROM %s
		WHERE %s IS NOT NULL AND %s IS NOT NULL
		  AND CAST(%s AS VARCHAR) <> '' AND CAST(%s AS VARCHAR) <> ''
	`, db.cfg.ViewsTable,
		quoteIdent(userCol), quoteIdent(itemCol), signalExpr,
		src,
		quoteIdent(userCol), quoteIdent(itemCol),
		quoteIdent(userCol), quoteIdent(itemCol))

	res, err := db.conn.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("import views from %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	db.logger.Info().Str("path", path).Int64("rows", n).Msg("imported views")
	return n, nil
}

// ImportItemsCSV loads item labels from a CSV file with a header, replacing
// existing labels for the same item. It returns the number of rows loaded.
func (db *DB) ImportItemsCSV(ctx context.Context, path string) (int64, error) {
	src, err := csvSource(path)
	if err != nil {
		return 0, err
	}

	columns, err := db.csvColumns(ctx, src)
	if err != nil {
		return 0, err
	}

	idCol, ok := pickColumn(columns, idColumns)
	if !ok {
		return 0, fmt.Errorf("items csv %s: no id column (want one of %s)", path, strings.Join(idColumns, ", "))
	}
	labelCol, ok := pickColumn(columns, labelColumns)
	if !ok {
		return 0, fmt.Errorf("items csv %s: no label column (want one of %s)", path, strings.Join(labelColumns, ", "))
	}

	// last row wins for duplicate ids, like repeated upserts
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (item_id, label)
		SELECT id, arg_max(label, rn)
		FROM (
			SELECT CAST(%s AS VARCHAR) AS id, CAST(%s AS VARCHAR) AS label, row_number() OVER () AS rn
			FROM %s
			WHERE %s IS NOT NULL
		)
		GROUP BY id
	`, db.cfg.ItemsTable, quoteIdent(idCol), quoteIdent(labelCol), src, quoteIdent(idCol))

	res, err := db.conn.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("import items from %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	db.logger.Info().Str("path", path).Int64("rows", n).Msg("imported items")
	return n, nil
}

// csvColumns returns the header names DuckDB detects for src.
func (db *DB) csvColumns(ctx context.Context, src string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT 0`, src))
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read csv columns: %w", err)
	}
	return columns, nil
}

// csvSource returns a read_csv_auto table expression for path.
func csvSource(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("csv file: %w", err)
	}
	return fmt.Sprintf("read_csv_auto('%s', header = true)", strings.ReplaceAll(path, "'", "''")), nil
}

// pickColumn returns the first candidate present in columns, matching
// case-insensitively, and the column's actual spelling.
func pickColumn(columns, candidates []string) (string, bool) {
	for _, want := range candidates {
		for _, have := range columns {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return have, true
			}
		}
	}
	return "", false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
