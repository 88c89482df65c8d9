// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import "testing"

func TestRetrainStep(t *testing.T) {
	tests := []struct {
		count int64
		want  int64
	}{
		{0, 5},
		{99, 5},
		{100, 10},
		{199, 10},
		{250, 15},
		{1000, 55},
	}

	for _, tt := range tests {
		if got := RetrainStep(tt.count); got != tt.want {
			t.Errorf("RetrainStep(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestIsRetrainDue(t *testing.T) {
	tests := []struct {
		count int64
		want  bool
	}{
		{0, true},
		{5, true},
		{7, false},
		{95, true},
		{99, false},
		{100, true},
		{105, false},
		{110, true},
		{200, false},
		{210, true},
		{-5, false},
		{-100, false},
	}

	for _, tt := range tests {
		if got := IsRetrainDue(tt.count); got != tt.want {
			t.Errorf("IsRetrainDue(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}
