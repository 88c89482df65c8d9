// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

// Package source supplies interaction records and item labels to the
// recommendation engine from a DuckDB database.
//
// Two tables are used:
//
//	views(user_id VARCHAR, item_id VARCHAR, signal DOUBLE, viewed_at TIMESTAMP)
//	items(item_id VARCHAR PRIMARY KEY, label VARCHAR)
//
// Every row of views is one raw record; repeated (user, item) rows are
// summed by the matrix builder, so a plain view log works as-is.
//
// DB implements recommend.DataProvider. ResilientProvider wraps any
// provider in a circuit breaker so a struggling database fails fast
// instead of stalling every retrain attempt.
//
// CSV files can be bulk loaded with ImportViewsCSV and ImportItemsCSV,
// which use DuckDB's read_csv_auto and accept the column aliases
// id/product_id/user_name/name used by older exports.
package source
