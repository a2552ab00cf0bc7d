// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "gopkg.in/check.v1"

type phaseSuite struct{}

var _ = check.Suite(&phaseSuite{})

func (s *phaseSuite) TestMergeCommutative(c *check.C) {
	vals := []Phase{PhaseUnknown, PhaseIdentical, PhaseOpposite, PhaseInconsistent}
	for _, x := range vals {
		for _, y := range vals {
			c.Check(mergePhase(x, y), check.Equals, mergePhase(y, x))
		}
	}
}

func (s *phaseSuite) TestMergeUnknownIsIdentity(c *check.C) {
	for _, x := range []Phase{PhaseUnknown, PhaseIdentical, PhaseOpposite, PhaseInconsistent} {
		c.Check(mergePhase(PhaseUnknown, x), check.Equals, x)
	}
}

func (s *phaseSuite) TestMergeInconsistentAbsorbs(c *check.C) {
	for _, x := range []Phase{PhaseUnknown, PhaseIdentical, PhaseOpposite, PhaseInconsistent} {
		c.Check(mergePhase(PhaseInconsistent, x), check.Equals, PhaseInconsistent)
	}
}

func (s *phaseSuite) TestMergeDisagreementIsInconsistent(c *check.C) {
	c.Check(mergePhase(PhaseIdentical, PhaseOpposite), check.Equals, PhaseInconsistent)
}

func (s *phaseSuite) TestMergeAgreementPassesThrough(c *check.C) {
	c.Check(mergePhase(PhaseIdentical, PhaseIdentical), check.Equals, PhaseIdentical)
	c.Check(mergePhase(PhaseOpposite, PhaseOpposite), check.Equals, PhaseOpposite)
}

func (s *phaseSuite) TestStringers(c *check.C) {
	c.Check(PhaseUnknown.String(), check.Equals, "UNKNOWN_STRAND")
	c.Check(PhaseIdentical.String(), check.Equals, "SAME_STRAND")
	c.Check(PhaseOpposite.String(), check.Equals, "OPPOSITE_STRAND")
	c.Check(PhaseInconsistent.String(), check.Equals, "INCONSISTENT_STRAND")
}
