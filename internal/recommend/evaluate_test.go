// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"context"
	"math"
	"testing"
)

func TestRocAUC(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		actual []bool
		want   float64
	}{
		{"perfect", []float64{0.1, 0.2, 0.8, 0.9}, []bool{false, false, true, true}, 1},
		{"reversed", []float64{0.9, 0.8, 0.2, 0.1}, []bool{false, false, true, true}, 0},
		{"interleaved", []float64{0.1, 0.2, 0.3, 0.4}, []bool{false, true, false, true}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := append([]float64(nil), tt.scores...)
			got := rocAUC(scores, tt.actual)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("rocAUC() = %v, want %v", got, tt.want)
			}
			for i := range scores {
				if scores[i] != tt.scores[i] {
					t.Fatal("rocAUC() modified its input")
				}
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	m, _ := mustBuild(t, blockRecords())

	split, err := SplitMatrix(m, 0.25, 3)
	if err != nil {
		t.Fatalf("SplitMatrix() error = %v", err)
	}
	f, err := FitALS(context.Background(), split.Train, testParams())
	if err != nil {
		t.Fatalf("FitALS() error = %v", err)
	}

	eval, err := Evaluate(split, f)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// every altered user keeps at least three out-of-cluster negatives
	if eval.Users != len(split.AlteredUsers) {
		t.Errorf("Users = %d, want %d", eval.Users, len(split.AlteredUsers))
	}
	for name, auc := range map[string]float64{"model": eval.ModelAUC, "popularity": eval.PopularityAUC} {
		if auc < 0 || auc > 1 || math.IsNaN(auc) {
			t.Errorf("%s AUC = %v, want a value in [0, 1]", name, auc)
		}
	}
}

func TestEvaluate_NoAlteredUsers(t *testing.T) {
	m, _ := mustBuild(t, scenarioRecords())

	split, err := SplitMatrix(m, 0, 1)
	if err != nil {
		t.Fatalf("SplitMatrix() error = %v", err)
	}

	eval, err := Evaluate(split, InitFactors(3, 4, 2, 1))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if *eval != (Evaluation{}) {
		t.Errorf("Evaluate() = %+v, want zero value", *eval)
	}
}

func TestEvaluate_ShapeMismatch(t *testing.T) {
	m, _ := mustBuild(t, scenarioRecords())

	split, err := SplitMatrix(m, 0.5, 1)
	if err != nil {
		t.Fatalf("SplitMatrix() error = %v", err)
	}

	if _, err := Evaluate(split, InitFactors(2, 4, 2, 1)); err == nil {
		t.Error("expected error for mismatched factor shape")
	}
}

func TestEvaluate_PopularityCountsViewers(t *testing.T) {
	// "a" has one heavy viewer, "c" has three light ones
	m, idx := mustBuild(t, []Interaction{
		{UserID: "u0", ItemID: "c", Signal: 1},
		{UserID: "u1", ItemID: "a", Signal: 100},
		{UserID: "u2", ItemID: "b", Signal: 1},
		{UserID: "u2", ItemID: "c", Signal: 1},
		{UserID: "u3", ItemID: "b", Signal: 1},
		{UserID: "u3", ItemID: "c", Signal: 1},
	}, WithSortedIndex())

	u0, _ := idx.UserRow("u0")
	c, _ := idx.ItemCol("c")
	split := &Split{
		Train:        m.without(map[Cell]struct{}{{Row: u0, Col: c}: {}}),
		Eval:         m.Binarize(),
		Masked:       []Cell{{Row: u0, Col: c}},
		AlteredUsers: []int{u0},
	}

	eval, err := Evaluate(split, InitFactors(4, 3, 2, 1))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if eval.Users != 1 {
		t.Fatalf("Users = %d, want 1", eval.Users)
	}
	// viewer counts a=1 b=2 c=3 rank the held-out c first; raw sums would
	// put a (100) above it
	if math.Abs(eval.PopularityAUC-1) > 1e-12 {
		t.Errorf("PopularityAUC = %v, want 1", eval.PopularityAUC)
	}
}
