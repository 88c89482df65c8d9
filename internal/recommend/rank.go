// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"sort"
)

// RankOptions tunes label resolution during ranking.
type RankOptions struct {
	// LabelPolicy decides what happens when the lookup has no label.
	LabelPolicy LabelPolicy
}

// Recommend returns up to n items for userID that the user has no signal
// for in train, best first.
//
// Raw scores are the user factor row times every item factor row. They are
// min-max scaled over all items (a zero range scales to 0) and only then are
// already-seen items zeroed out. Ties are broken by item column ascending.
// When fewer than n unseen items exist, all of them are returned; when none
// exist, the result is empty.
func Recommend(userID string, train *InteractionMatrix, index *Index, factors *Factors, lookup ItemLookup, n int, opts RankOptions) ([]Recommendation, error) {
	u, ok := index.UserRow(userID)
	if rows, _ := train.Dims(); !ok || u >= rows {
		return nil, &UnknownUserError{UserID: userID}
	}
	if n <= 0 {
		return []Recommendation{}, nil
	}

	scores := normalizeScores(factors.Predict(u))

	seen, _ := train.Row(u)
	excluded := make(map[int]struct{}, len(seen))
	for _, c := range seen {
		excluded[c] = struct{}{}
	}

	type scored struct {
		col   int
		score float64
	}
	candidates := make([]scored, 0, len(scores)-len(excluded))
	for c, s := range scores {
		if _, skip := excluded[c]; skip {
			continue
		}
		candidates = append(candidates, scored{col: c, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].col < candidates[j].col
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		itemID := index.ItemAt(cand.col)
		label, err := resolveLabel(lookup, itemID, opts.LabelPolicy)
		if err != nil {
			return nil, err
		}
		recs = append(recs, Recommendation{
			ItemID: itemID,
			Label:  label,
			Score:  cand.score,
		})
	}

	return recs, nil
}

// normalizeScores min-max scales scores into [0, 1] in place.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	spread := hi - lo
	for i, s := range scores {
		if spread == 0 {
			scores[i] = 0
			continue
		}
		scores[i] = (s - lo) / spread
	}
	return scores
}

func resolveLabel(lookup ItemLookup, itemID string, policy LabelPolicy) (string, error) {
	if lookup == nil {
		return "", nil
	}
	label, ok := lookup.Lookup(itemID)
	if !ok && policy == LabelStrict {
		return "", &UnknownItemError{ItemID: itemID}
	}
	return label, nil
}

// ViewedItem is an item the user already has training signal for.
type ViewedItem struct {
	ItemID string  `json:"item_id"`
	Label  string  `json:"label,omitempty"`
	Signal float64 `json:"signal"`
}

// ViewedItems lists the items userID has interacted with in train, strongest
// signal first, ties by item column ascending. Missing labels are left empty.
func ViewedItems(userID string, train *InteractionMatrix, index *Index, lookup ItemLookup) ([]ViewedItem, error) {
	u, ok := index.UserRow(userID)
	if rows, _ := train.Dims(); !ok || u >= rows {
		return nil, &UnknownUserError{UserID: userID}
	}

	cols, vals := train.Row(u)
	order := make([]int, len(cols))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return vals[order[a]] > vals[order[b]]
	})

	out := make([]ViewedItem, 0, len(cols))
	for _, i := range order {
		itemID := index.ItemAt(cols[i])
		label, _ := resolveLabel(lookup, itemID, LabelOmit)
		out = append(out, ViewedItem{ItemID: itemID, Label: label, Signal: vals[i]})
	}
	return out, nil
}
