// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Evaluation summarizes how well held-out interactions are recovered.
type Evaluation struct {
	// Users is the number of altered users that contributed an AUC.
	Users int `json:"users"`

	// ModelAUC is the mean ROC-AUC of the factor model.
	ModelAUC float64 `json:"model_auc"`

	// PopularityAUC is the mean ROC-AUC of ranking by item popularity.
	PopularityAUC float64 `json:"popularity_auc"`
}

// Evaluate scores the held-out cells of split against factors.
//
// For every altered user the items without training signal are ranked by
// the model and by overall item popularity; the held-out items are the
// positives. Users whose candidates are all positive or all negative are
// skipped. A split with no altered users yields a zero Evaluation.
func Evaluate(split *Split, factors *Factors) (*Evaluation, error) {
	rows, cols := split.Train.Dims()
	fu, _ := factors.Users.Dims()
	fi, _ := factors.Items.Dims()
	if fu != rows || fi != cols {
		return nil, fmt.Errorf("factor shape %dx%d does not match matrix %dx%d", fu, fi, rows, cols)
	}

	// popularity counts distinct viewers, not raw signal
	popularity := split.Eval.ColumnSums()

	var modelAUCs, popAUCs []float64
	for _, u := range split.AlteredUsers {
		seen, _ := split.Train.Row(u)
		excluded := make(map[int]struct{}, len(seen))
		for _, c := range seen {
			excluded[c] = struct{}{}
		}

		predicted := factors.Predict(u)
		var modelScores, popScores []float64
		var actual []bool
		positives := 0
		for c := 0; c < cols; c++ {
			if _, skip := excluded[c]; skip {
				continue
			}
			hit := split.Eval.At(u, c) > 0
			if hit {
				positives++
			}
			actual = append(actual, hit)
			modelScores = append(modelScores, predicted[c])
			popScores = append(popScores, popularity[c])
		}
		if positives == 0 || positives == len(actual) {
			continue
		}

		modelAUCs = append(modelAUCs, rocAUC(modelScores, actual))
		popAUCs = append(popAUCs, rocAUC(popScores, actual))
	}

	if len(modelAUCs) == 0 {
		return &Evaluation{}, nil
	}

	return &Evaluation{
		Users:         len(modelAUCs),
		ModelAUC:      stat.Mean(modelAUCs, nil),
		PopularityAUC: stat.Mean(popAUCs, nil),
	}, nil
}

// rocAUC is the area under the ROC curve of scores against the true
// classes. scores is not modified.
func rocAUC(scores []float64, actual []bool) float64 {
	sorted := append([]float64(nil), scores...)
	inds := make([]int, len(sorted))
	floats.Argsort(sorted, inds)

	classes := make([]bool, len(inds))
	for i, idx := range inds {
		classes[i] = actual[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
