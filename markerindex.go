// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "fmt"

// MarkerIndex is an immutable, ordered view over one input file's
// markers, with by-identifier and by-position lookup. Constructing one
// fails if the input carries a duplicate identifier or markers whose
// positions are not non-decreasing; both are fatal input-integrity
// errors per spec.md §7.
type MarkerIndex struct {
	markers []*Marker
	byID    map[string]*Marker
	byPos   map[int][]*Marker
	order   map[*Marker]int
}

func NewMarkerIndex(markers []*Marker) (*MarkerIndex, error) {
	idx := &MarkerIndex{
		markers: markers,
		byID:    make(map[string]*Marker, len(markers)),
		byPos:   make(map[int][]*Marker),
		order:   make(map[*Marker]int, len(markers)),
	}
	lastPos := -1
	for i, m := range markers {
		if m.Pos < lastPos {
			return nil, fmt.Errorf("non-monotonic marker order: position %d follows %d", m.Pos, lastPos)
		}
		lastPos = m.Pos
		for _, id := range m.IDs {
			if _, dup := idx.byID[id]; dup {
				return nil, fmt.Errorf("duplicate marker id %q", id)
			}
			idx.byID[id] = m
		}
		idx.byPos[m.Pos] = append(idx.byPos[m.Pos], m)
		idx.order[m] = i
	}
	return idx, nil
}

// Markers returns the markers in their original (ascending-position)
// order.
func (idx *MarkerIndex) Markers() []*Marker { return idx.markers }

// ByID looks up the marker carrying identifier id.
func (idx *MarkerIndex) ByID(id string) (*Marker, bool) {
	m, ok := idx.byID[id]
	return m, ok
}

// ByPos returns every marker recorded at position pos, in input order.
func (idx *MarkerIndex) ByPos(pos int) []*Marker { return idx.byPos[pos] }

// IndexOf returns m's position in Markers(), or -1 if m is not in
// this index.
func (idx *MarkerIndex) IndexOf(m *Marker) int {
	if i, ok := idx.order[m]; ok {
		return i
	}
	return -1
}
