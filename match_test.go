// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "gopkg.in/check.v1"

type matchSuite struct{}

var _ = check.Suite(&matchSuite{})

func (s *matchSuite) TestStrandIdentical(c *check.C) {
	r := &Marker{Alleles: []string{"A", "G"}}
	t := &Marker{Alleles: []string{"A", "G"}}
	c.Check(strand(r, t), check.Equals, PhaseIdentical)
}

func (s *matchSuite) TestStrandOpposite(c *check.C) {
	r := &Marker{Alleles: []string{"A", "G"}}
	t := &Marker{Alleles: []string{"T", "C"}}
	c.Check(strand(r, t), check.Equals, PhaseOpposite)
}

func (s *matchSuite) TestStrandPalindromeIsUnknown(c *check.C) {
	r := &Marker{Alleles: []string{"A", "T"}}
	t := &Marker{Alleles: []string{"A", "T"}}
	c.Check(strand(r, t), check.Equals, PhaseUnknown)
}

func (s *matchSuite) TestStrandInconsistent(c *check.C) {
	r := &Marker{Alleles: []string{"A", "G"}}
	t := &Marker{Alleles: []string{"A", "C"}}
	c.Check(strand(r, t), check.Equals, PhaseInconsistent)
}

func newIndex(c *check.C, markers []*Marker) *MarkerIndex {
	idx, err := NewMarkerIndex(markers)
	c.Assert(err, check.IsNil)
	return idx
}

// S4: neither orientation is a subset of the reference allele set.
func (s *matchSuite) TestMatcherRejectsInconsistentAlleles(c *check.C) {
	ref := newIndex(c, []*Marker{{Pos: 100, IDs: []string{"rs1"}, Alleles: []string{"A", "G"}}})
	tgt := newIndex(c, []*Marker{{Pos: 100, IDs: []string{"rs1"}, Alleles: []string{"A", "C"}}})
	m := NewMatcher(ref, tgt, true)
	ev, ok := m.Next()
	c.Assert(ok, check.Equals, true)
	c.Check(ev.Matched, check.Equals, false)
	c.Check(ev.Reason, check.Equals, RejectNotInReference)
}

// S5: two compatible reference candidates at the same position.
func (s *matchSuite) TestMatcherRejectsMultipleCandidates(c *check.C) {
	ref := newIndex(c, []*Marker{
		{Pos: 12345, Alleles: []string{"A", "G"}},
		{Pos: 12345, Alleles: []string{"A", "G"}},
	})
	tgt := newIndex(c, []*Marker{{Pos: 12345, Alleles: []string{"A", "G"}}})
	m := NewMatcher(ref, tgt, false)
	ev, ok := m.Next()
	c.Assert(ok, check.Equals, true)
	c.Check(ev.Matched, check.Equals, false)
	c.Check(ev.Reason, check.Equals, RejectMultipleRefMatches)
}

func (s *matchSuite) TestMatcherAcceptsUniqueFlip(c *check.C) {
	ref := newIndex(c, []*Marker{{Pos: 1, IDs: []string{"rs1"}, Alleles: []string{"A", "G"}}})
	tgt := newIndex(c, []*Marker{{Pos: 1, IDs: []string{"rs1"}, Alleles: []string{"T", "C"}}})
	m := NewMatcher(ref, tgt, true)
	ev, ok := m.Next()
	c.Assert(ok, check.Equals, true)
	c.Assert(ev.Matched, check.Equals, true)
	c.Check(ev.Pair.Strand, check.Equals, PhaseOpposite)
}

func (s *matchSuite) TestMatcherDetectsOutOfOrderCandidate(c *check.C) {
	ref := newIndex(c, []*Marker{
		{Pos: 1, IDs: []string{"rsA"}, Alleles: []string{"A", "G"}},
		{Pos: 2, IDs: []string{"rsB"}, Alleles: []string{"A", "G"}},
	})
	tgt := newIndex(c, []*Marker{
		{Pos: 1, IDs: []string{"rsB"}, Alleles: []string{"A", "G"}},
		{Pos: 2, IDs: []string{"rsA"}, Alleles: []string{"A", "G"}},
	})
	m := NewMatcher(ref, tgt, true)
	ev1, _ := m.Next()
	c.Check(ev1.Matched, check.Equals, true)
	ev2, _ := m.Next()
	c.Check(ev2.Matched, check.Equals, false)
	c.Check(ev2.Reason, check.Equals, RejectMarkerOutOfOrder)
}

func (s *matchSuite) TestMatcherExactlyOneEventPerTarget(c *check.C) {
	ref := newIndex(c, []*Marker{{Pos: 1, Alleles: []string{"A", "G"}}})
	tgt := newIndex(c, []*Marker{
		{Pos: 1, Alleles: []string{"A", "G"}},
		{Pos: 2, Alleles: []string{"A", "C"}},
	})
	m := NewMatcher(ref, tgt, false)
	n := 0
	for {
		_, ok := m.Next()
		if !ok {
			break
		}
		n++
	}
	c.Check(n, check.Equals, 2)
}
