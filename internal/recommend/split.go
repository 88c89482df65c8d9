// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"math"
	"math/rand"
	"sort"
)

// Split is the result of holding out a fraction of nonzero cells.
type Split struct {
	// Train is the input with every masked cell removed.
	Train *InteractionMatrix

	// Eval is the binarized input: 1 wherever the input was nonzero.
	Eval *InteractionMatrix

	// Masked lists the held-out cells in draw order.
	Masked []Cell

	// AlteredUsers lists the distinct rows that lost at least one cell,
	// ascending.
	AlteredUsers []int
}

// SplitMatrix holds out ceil(fraction * nnz) nonzero cells of m.
//
// Candidates are taken in m.Cells() order and drawn without replacement by a
// partial Fisher-Yates shuffle keyed on seed, so the same matrix and seed
// always mask the same cells.
func SplitMatrix(m *InteractionMatrix, fraction float64, seed int64) (*Split, error) {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return nil, ErrInvalidFraction
	}

	candidates := m.Cells()
	count := int(math.Ceil(fraction * float64(len(candidates))))
	if count > len(candidates) {
		count = len(candidates)
	}

	//nolint:gosec // reproducible sampling, not security sensitive
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	masked := candidates[:count:count]

	maskSet := make(map[Cell]struct{}, count)
	rowSet := make(map[int]struct{})
	for _, c := range masked {
		maskSet[c] = struct{}{}
		rowSet[c.Row] = struct{}{}
	}

	altered := make([]int, 0, len(rowSet))
	for r := range rowSet {
		altered = append(altered, r)
	}
	sort.Ints(altered)

	return &Split{
		Train:        m.without(maskSet),
		Eval:         m.Binarize(),
		Masked:       masked,
		AlteredUsers: altered,
	}, nil
}
