// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "gopkg.in/check.v1"

// propertySuite exercises the cross-component invariants spec'd as
// testable properties: idempotence of strand under double-flip,
// strand's behavior under a single flip, and commutativity of the
// frequency z statistic.
type propertySuite struct{}

var _ = check.Suite(&propertySuite{})

func (s *propertySuite) TestStrandIdempotentUnderDoubleFlip(c *check.C) {
	cases := []struct{ ref, tgt []string }{
		{[]string{"A", "G"}, []string{"A", "G"}},
		{[]string{"A", "G"}, []string{"T", "C"}},
		{[]string{"A", "T"}, []string{"A", "T"}},
		{[]string{"A", "G"}, []string{"A", "C"}},
	}
	for _, tc := range cases {
		r := &Marker{Alleles: tc.ref}
		t := &Marker{Alleles: tc.tgt}
		doubleFlipped := t.Complement().Complement()
		c.Check(strand(r, doubleFlipped), check.Equals, strand(r, t))
	}
}

func (s *propertySuite) TestStrandUnderSingleFlipSwapsIdenticalAndOpposite(c *check.C) {
	r := &Marker{Alleles: []string{"A", "G"}}
	identical := &Marker{Alleles: []string{"A", "G"}}
	opposite := &Marker{Alleles: []string{"T", "C"}}
	c.Check(strand(r, identical), check.Equals, PhaseIdentical)
	c.Check(strand(r, identical.Complement()), check.Equals, PhaseOpposite)
	c.Check(strand(r, opposite), check.Equals, PhaseOpposite)
	c.Check(strand(r, opposite.Complement()), check.Equals, PhaseIdentical)
}

func (s *propertySuite) TestStrandUnderSingleFlipLeavesUnknownAndInconsistentFixed(c *check.C) {
	palindrome := &Marker{Alleles: []string{"A", "T"}}
	r := &Marker{Alleles: []string{"A", "T"}}
	c.Check(strand(r, palindrome), check.Equals, PhaseUnknown)
	c.Check(strand(r, palindrome.Complement()), check.Equals, PhaseUnknown)

	rInc := &Marker{Alleles: []string{"A", "G"}}
	tInc := &Marker{Alleles: []string{"A", "C"}}
	c.Check(strand(rInc, tInc), check.Equals, PhaseInconsistent)
	c.Check(strand(rInc, tInc.Complement()), check.Equals, PhaseInconsistent)
}

func (s *propertySuite) TestAbsZCommutesUnderViewSwap(c *check.C) {
	cases := [][2]*AlleleDose{
		{{Count: []int{16, 24}, Dose: make([]int, 20)}, {Count: []int{8, 32}, Dose: make([]int, 20)}},
		{{Count: []int{0, 20}, Dose: make([]int, 10)}, {Count: []int{5, 15}, Dose: make([]int, 10)}},
	}
	for _, tc := range cases {
		c.Check(AbsZ(tc[0], tc[1]), check.Equals, AbsZ(tc[1], tc[0]))
	}
}

// M(INCONSISTENT, x) = INCONSISTENT for every x (spec.md §8 property 3).
func (s *propertySuite) TestMergeAbsorbsInconsistentForEveryValue(c *check.C) {
	for _, x := range []Phase{PhaseUnknown, PhaseIdentical, PhaseOpposite, PhaseInconsistent} {
		c.Check(mergePhase(PhaseInconsistent, x), check.Equals, PhaseInconsistent)
		c.Check(mergePhase(x, PhaseInconsistent), check.Equals, PhaseInconsistent)
	}
}
