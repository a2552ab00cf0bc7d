// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Correlation returns the Pearson correlation of two equal-length dose
// arrays, considering only sample indices where both doses are
// non-missing (spec.md §4.4). It guards the degenerate cases the
// spec calls out explicitly, then delegates the arithmetic to
// gonum's stat.Correlation, the same gonum/stat sub-package the
// teacher uses elsewhere for regression input normalization.
func Correlation(x, y []int) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("dosage arrays have different lengths (%d vs %d)", len(x), len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if x[i] >= 0 && y[i] >= 0 {
			xs = append(xs, float64(x[i]))
			ys = append(ys, float64(y[i]))
		}
	}
	if len(xs) == 0 || isConstant(xs) || isConstant(ys) {
		return 0, nil
	}
	return stat.Correlation(xs, ys, nil), nil
}

func isConstant(a []float64) bool {
	for _, v := range a[1:] {
		if v != a[0] {
			return false
		}
	}
	return true
}
