// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "gopkg.in/check.v1"

type recordSuite struct{}

var _ = check.Suite(&recordSuite{})

func (s *recordSuite) TestNewRecordAllMissing(c *check.C) {
	r := NewRecord(&Marker{}, 3)
	c.Check(r.NSamples(), check.Equals, 3)
	for i := 0; i < 3; i++ {
		c.Check(r.Hap1[i], check.Equals, missingAllele)
		c.Check(r.Hap2[i], check.Equals, missingAllele)
		c.Check(r.Phased[i], check.Equals, false)
	}
}

func (s *recordSuite) TestMaskDropsSamplesPreservingOrder(c *check.C) {
	r := &Record{
		Marker: &Marker{},
		Hap1:   []int{0, 1, 0, 1},
		Hap2:   []int{1, 1, 0, 0},
		Phased: []bool{true, false, true, false},
	}
	masked := r.Mask(map[int]bool{1: true, 3: true})
	c.Check(masked.Hap1, check.DeepEquals, []int{0, 0})
	c.Check(masked.Hap2, check.DeepEquals, []int{1, 0})
	c.Check(masked.Phased, check.DeepEquals, []bool{true, true})
	c.Check(masked.Marker, check.Equals, r.Marker)
}

func (s *recordSuite) TestMaskWithEmptyDropReturnsSameRecord(c *check.C) {
	r := &Record{Marker: &Marker{}, Hap1: []int{0}, Hap2: []int{0}, Phased: []bool{true}}
	c.Check(r.Mask(nil), check.Equals, r)
	c.Check(r.Mask(map[int]bool{}), check.Equals, r)
}
