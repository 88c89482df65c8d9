// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// testLogger returns a zerolog logger for testing.
func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// blockRecords returns two disjoint taste clusters: users u0-u3 view items
// a, b, c and users u4-u7 view items d, e, f. Each user skips one item of
// their own cluster so there is something in-cluster left to recommend.
func blockRecords() []Interaction {
	var records []Interaction
	clusters := [][]string{{"a", "b", "c"}, {"d", "e", "f"}}
	for u := 0; u < 8; u++ {
		items := clusters[u/4]
		skip := u % 3
		for i, item := range items {
			if i == skip {
				continue
			}
			records = append(records, Interaction{
				UserID: fmt.Sprintf("u%d", u),
				ItemID: item,
				Signal: float64(1 + (u+i)%3),
			})
		}
	}
	return records
}

// scenarioRecords is the 3 users x 4 items fixture where user u0 has signal
// on items i1 and i2 only. Used with WithSortedIndex so u0 is row 0 and
// iN is column N.
func scenarioRecords() []Interaction {
	return []Interaction{
		{UserID: "u0", ItemID: "i1", Signal: 2},
		{UserID: "u0", ItemID: "i2", Signal: 1},
		{UserID: "u1", ItemID: "i0", Signal: 3},
		{UserID: "u1", ItemID: "i1", Signal: 1},
		{UserID: "u1", ItemID: "i3", Signal: 1},
		{UserID: "u2", ItemID: "i0", Signal: 1},
		{UserID: "u2", ItemID: "i1", Signal: 1},
		{UserID: "u2", ItemID: "i2", Signal: 4},
		{UserID: "u2", ItemID: "i3", Signal: 1},
	}
}

// mustBuild builds a matrix or fails the test.
func mustBuild(t *testing.T, records []Interaction, opts ...BuildOption) (*InteractionMatrix, *Index) {
	t.Helper()
	m, idx, err := BuildMatrix(records, opts...)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	return m, idx
}

// testParams returns small, fast ALS parameters.
func testParams() ALSParams {
	return ALSParams{
		Rank:           2,
		Regularization: 0.1,
		Alpha:          15,
		Iterations:     10,
		Seed:           7,
		Workers:        2,
	}
}
