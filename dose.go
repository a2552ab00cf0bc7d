// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "fmt"

// AlleleDose is a per-sample dosage view of one reference allele,
// built by mapping a (possibly strand-flipped) target record's allele
// indices onto a reference marker's allele indices (spec.md §4.2).
type AlleleDose struct {
	RefAllele int
	Pi        []int // π: target allele index -> reference allele index
	Dose      []int // d[i]: copies of RefAllele on sample i, or -1 if either haplotype is missing
	Count     []int // c[a]: total observed copies of reference allele a, over all non-missing haplotypes
}

// NewAlleleDose builds the AlleleDose of refAllele (an index into
// ref.Alleles) for tgtRecord. If flip is set, tgtRecord's marker is
// replaced by its strand-complement first; if that complement leaves
// every allele unchanged, construction fails ("inconsistent-data" in
// spec.md §4.2 step 1 — it means flip was requested for a marker with
// no single-base alleles to flip; strand() classifies such a marker
// UNKNOWN when the reference carries the same alleles, and
// NewMatchedSlot then requests its flipped view and gets this error).
//
// If the target's allele set does not map onto the reference's allele
// set (or refAllele is not among the images of π), NewAlleleDose
// returns (nil, nil): this is the expected, non-error outcome when the
// orientation being tried is the one the matcher ruled out, and the
// caller (window.go) simply leaves that view absent.
func NewAlleleDose(ref *Marker, tgtRecord *Record, flip bool, refAllele int) (*AlleleDose, error) {
	tgtMarker := tgtRecord.Marker
	if flip {
		flipped := tgtMarker.Complement()
		if allelesEqual(flipped.Alleles, tgtMarker.Alleles) {
			return nil, fmt.Errorf("inconsistent-data: complement of marker %v changed no allele", tgtMarker)
		}
		tgtMarker = flipped
	}

	pi := make([]int, len(tgtMarker.Alleles))
	for j, a := range tgtMarker.Alleles {
		found := -1
		for k, ra := range ref.Alleles {
			if ra == a {
				found = k
				break
			}
		}
		if found < 0 {
			return nil, nil
		}
		pi[j] = found
	}

	aT := -1
	for j, image := range pi {
		if image == refAllele {
			aT = j
			break
		}
	}
	if aT < 0 {
		return nil, nil
	}

	n := tgtRecord.NSamples()
	dose := make([]int, n)
	for i := 0; i < n; i++ {
		h1, h2 := tgtRecord.Hap1[i], tgtRecord.Hap2[i]
		if h1 == missingAllele || h2 == missingAllele {
			dose[i] = -1
			continue
		}
		d := 0
		if h1 == aT {
			d++
		}
		if h2 == aT {
			d++
		}
		dose[i] = d
	}

	count := make([]int, len(ref.Alleles))
	for i := 0; i < n; i++ {
		if h := tgtRecord.Hap1[i]; h != missingAllele {
			count[pi[h]]++
		}
		if h := tgtRecord.Hap2[i]; h != missingAllele {
			count[pi[h]]++
		}
	}

	return &AlleleDose{RefAllele: refAllele, Pi: pi, Dose: dose, Count: count}, nil
}

func allelesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sumInts(a []int) int {
	s := 0
	for _, v := range a {
		s += v
	}
	return s
}
