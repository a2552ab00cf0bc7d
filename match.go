// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

// RejectReason is the disposition logged for a target marker that did
// not survive matching against the reference.
type RejectReason string

const (
	RejectNotInReference     RejectReason = "NOT_IN_REFERENCE"
	RejectMultipleRefMatches RejectReason = "MULTIPLE_REF_MATCHES"
	RejectDuplicateMarker    RejectReason = "DUPLICATE_MARKER"
	RejectMarkerOutOfOrder   RejectReason = "MARKER_OUT_OF_ORDER"
)

// MatchedPair is one (reference marker, target marker, strand
// verdict) triple produced by the matcher.
type MatchedPair struct {
	Ref    *Marker
	Target *Marker
	Strand Phase
}

// MatchEvent is the result of considering one target marker: either it
// matched a unique compatible reference marker, or it was rejected
// for one of the RejectReasons. Exactly one event is produced per
// target marker, in target order, so that logs derived from this
// stream stay monotone (spec.md §8 property 5).
type MatchEvent struct {
	Matched bool
	Pair    MatchedPair
	Target  *Marker
	Reason  RejectReason
}

// candidateLookup abstracts the two ways of finding reference markers
// that might correspond to a target marker (spec.md §9 REDESIGN
// FLAGS: a sum type / injected strategy instead of inheritance).
type candidateLookup interface {
	candidates(ref *MarkerIndex, t *Marker) []*Marker
}

type byIDLookup struct{}

func (byIDLookup) candidates(ref *MarkerIndex, t *Marker) []*Marker {
	seen := map[*Marker]bool{}
	var out []*Marker
	for _, id := range t.IDs {
		if m, ok := ref.ByID(id); ok && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

type byPosLookup struct{}

func (byPosLookup) candidates(ref *MarkerIndex, t *Marker) []*Marker {
	return ref.ByPos(t.Pos)
}

// Matcher walks a target MarkerIndex once, in order, matching each
// marker against a reference MarkerIndex (spec.md §4.1).
type Matcher struct {
	ref          *MarkerIndex
	targets      []*Marker
	pos          int
	lookup       candidateLookup
	prevRefIndex int
}

// NewMatcher builds a Matcher. matchByID selects identifier-based
// candidate lookup; otherwise candidates are found by position.
func NewMatcher(ref, target *MarkerIndex, matchByID bool) *Matcher {
	m := &Matcher{ref: ref, targets: target.Markers(), prevRefIndex: -1}
	if matchByID {
		m.lookup = byIDLookup{}
	} else {
		m.lookup = byPosLookup{}
	}
	return m
}

// Next consumes the next target marker and returns the event for it,
// or ok=false once every target marker has been considered.
func (m *Matcher) Next() (event MatchEvent, ok bool) {
	if m.pos >= len(m.targets) {
		return MatchEvent{}, false
	}
	t := m.targets[m.pos]
	m.pos++

	var compatible []*Marker
	var strands []Phase
	for _, r := range m.lookup.candidates(m.ref, t) {
		if s := strand(r, t); s != PhaseInconsistent {
			compatible = append(compatible, r)
			strands = append(strands, s)
		}
	}

	switch {
	case len(compatible) == 0:
		return MatchEvent{Target: t, Reason: RejectNotInReference}, true
	case len(compatible) > 1:
		return MatchEvent{Target: t, Reason: RejectMultipleRefMatches}, true
	}

	r := compatible[0]
	i := m.ref.IndexOf(r)
	switch {
	case i == m.prevRefIndex:
		return MatchEvent{Target: t, Reason: RejectDuplicateMarker}, true
	case i < m.prevRefIndex:
		return MatchEvent{Target: t, Reason: RejectMarkerOutOfOrder}, true
	}
	m.prevRefIndex = i
	return MatchEvent{Matched: true, Pair: MatchedPair{Ref: r, Target: t, Strand: strands[0]}}, true
}

// strand decides the strand relationship between reference marker r
// and target marker t by comparing allele-symbol sets under both the
// as-is and complemented interpretation of t (spec.md §4.1).
func strand(r, t *Marker) Phase {
	a := r.AlleleSet()
	b := t.AlleleSet()
	bFlip := t.Complement().AlleleSet()
	supB := isSuperset(a, b)
	supBFlip := isSuperset(a, bFlip)
	switch {
	case supB && supBFlip:
		return PhaseUnknown
	case supB:
		return PhaseIdentical
	case supBFlip:
		return PhaseOpposite
	default:
		return PhaseInconsistent
	}
}

func isSuperset(a, b map[string]bool) bool {
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}
