// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

// RetrainStep returns the retrain interval for a corpus of count
// interactions: 5 below 100, 10 below 200, and so on.
func RetrainStep(count int64) int64 {
	return (count/100 + 1) * 5
}

// IsRetrainDue reports whether count lands on a retrain boundary.
// Negative counts are never due.
func IsRetrainDue(count int64) bool {
	if count < 0 {
		return false
	}
	return count%RetrainStep(count) == 0
}
