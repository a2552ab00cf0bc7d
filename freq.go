// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "math"

// AbsZ computes the magnitude of the two-proportion z statistic on
// the reference allele's count (index 0 of AlleleDose.Count) between
// two cohort dose views, per spec.md §4.3. A nil view, or a cohort
// with no non-missing alleles, is treated as maximally distant: nil
// occurs when the matcher's strand verdict already ruled that
// orientation out (or when the target carries no copy of the
// reference allele), so freqPhase below reliably falls through to the
// orientation that is actually present (spec.md §9 open question 2).
func AbsZ(x, y *AlleleDose) float64 {
	if x == nil || y == nil {
		return math.Inf(1)
	}
	nx, ny := sumInts(x.Count), sumInts(y.Count)
	if nx == 0 || ny == 0 {
		return math.Inf(1)
	}
	xCnt, yCnt := float64(x.Count[0]), float64(y.Count[0])
	fnx, fny := float64(nx), float64(ny)
	if xCnt+yCnt == 0 || xCnt+yCnt == fnx+fny {
		return 0
	}
	px, py := xCnt/fnx, yCnt/fny
	p := (xCnt + yCnt) / (fnx + fny)
	variance := (1/fnx + 1/fny) * p * (1 - p)
	return math.Abs(px-py) / math.Sqrt(variance)
}

// freqPhaseDelta is the minimum gap between the two z statistics
// required before frequency concordance favors one orientation.
const freqPhaseDelta = 4.0

// FreqPhase fuses the z statistic computed on the as-is target
// (absZ) and on the flipped target (flippedAbsZ) into a phase verdict
// per spec.md §4.3.
func FreqPhase(absZ, flippedAbsZ float64) Phase {
	switch {
	case flippedAbsZ >= absZ+freqPhaseDelta:
		return PhaseIdentical
	case absZ >= flippedAbsZ+freqPhaseDelta:
		return PhaseOpposite
	default:
		return PhaseUnknown
	}
}
