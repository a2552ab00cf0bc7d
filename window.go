// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import "math"

// windowOverlap (W) bounds both the correlation lookback and the
// window's residency: at most 2*windowOverlap slots are held at once
// (spec.md §3, §5).
const windowOverlap = 100

// WindowSlot is one candidate target marker's state inside the
// window: either it was rejected by the matcher (Rejected is set and
// nothing else is meaningful beyond Target/RejectReason), or it is a
// matched pair carrying its three phase verdicts and the allele-dose
// views those verdicts are computed from.
type WindowSlot struct {
	Rejected     bool
	RejectReason RejectReason

	Target        *Marker
	Ref           *Marker
	TgtFiltered   *Record
	TgtUnfiltered *Record

	AllelePhase Phase
	FreqPhase   Phase
	CorPhase    Phase

	refDose     *AlleleDose
	tgtDose     *AlleleDose // target-as-is; present iff AllelePhase ∈ {UNKNOWN, IDENTICAL}
	tgtFlipDose *AlleleDose // target-flipped; present iff AllelePhase ∈ {UNKNOWN, OPPOSITE}

	// informativeCnt is diagnostic only (spec.md §9 open question 3);
	// the fusion logic never reads it back.
	informativeCnt int
}

// NewMatchedSlot builds the WindowSlot for a matched pair: the three
// allele-dose views it needs and its immediate freqPhase verdict
// (spec.md §4.5 step 3). corPhase starts UNKNOWN and accumulates
// evidence only once the slot is inside the window (updateCorPhase).
func NewMatchedSlot(pair MatchedPair, refRecord, tgtFiltered, tgtUnfiltered *Record) (*WindowSlot, error) {
	refDose, err := NewAlleleDose(pair.Ref, refRecord, false, 0)
	if err != nil {
		return nil, err
	}
	slot := &WindowSlot{
		Target:        pair.Target,
		Ref:           pair.Ref,
		TgtFiltered:   tgtFiltered,
		TgtUnfiltered: tgtUnfiltered,
		AllelePhase:   pair.Strand,
		CorPhase:      PhaseUnknown,
		refDose:       refDose,
	}
	if pair.Strand == PhaseUnknown || pair.Strand == PhaseIdentical {
		slot.tgtDose, err = NewAlleleDose(pair.Ref, tgtFiltered, false, 0)
		if err != nil {
			return nil, err
		}
	}
	if pair.Strand == PhaseUnknown || pair.Strand == PhaseOpposite {
		slot.tgtFlipDose, err = NewAlleleDose(pair.Ref, tgtFiltered, true, 0)
		if err != nil {
			return nil, err
		}
	}
	slot.FreqPhase = FreqPhase(AbsZ(refDose, slot.tgtDose), AbsZ(refDose, slot.tgtFlipDose))
	return slot, nil
}

// NewRejectedSlot builds the lightweight WindowSlot standing in for a
// target marker the matcher dropped, so that it still occupies its
// correct position in the flush order (spec.md §8 property 5:
// exactly one log line per considered target marker, in target
// order — rejects must flow through the same ordered pipeline as
// matches, not be logged out of turn as soon as they're found).
func NewRejectedSlot(t *Marker, reason RejectReason) *WindowSlot {
	return &WindowSlot{Rejected: true, Target: t, RejectReason: reason}
}

// Effective computes the slot's fused verdict (spec.md §4.5.2).
func (s *WindowSlot) Effective(strict bool) Phase {
	if !strict && s.AllelePhase != PhaseUnknown {
		return s.AllelePhase
	}
	return mergePhase(s.AllelePhase, mergePhase(s.FreqPhase, s.CorPhase))
}

// minAbsCor is the minimum |correlation| treated as informative for a
// variant whose allele frequency is freq among n samples (spec.md
// §4.5.1 step 1). Variants near 50% frequency get a lower bar; rarer
// or commoner variants need a stronger correlation to trust, since
// their dosage arrays carry less information.
func minAbsCor(freq float64, n int) float64 {
	if n <= 1 {
		return math.Inf(1)
	}
	denom := math.Sqrt(float64(n - 1))
	if freq > 0.3 && freq < 0.7 {
		return 5 / denom
	}
	return 7 / denom
}

func doseFreq(d *AlleleDose) (freq float64, n int) {
	total := sumInts(d.Count)
	if total == 0 {
		return 0, len(d.Dose)
	}
	return float64(d.Count[0]) / float64(total), len(d.Dose)
}

// updateCorPhase runs one fusion pass over the whole in-memory window
// (spec.md §4.5.1): every variant with a decisive freqPhase verdict
// acts as an anchor for every other variant's corPhase.
func updateCorPhase(slots []*WindowSlot) {
	for j, focus := range slots {
		if focus.Rejected {
			continue
		}
		refFreq, refN := doseFreq(focus.refDose)
		minRefR := minAbsCor(refFreq, refN)
		var tgtView *AlleleDose
		if focus.tgtDose != nil {
			tgtView = focus.tgtDose
		} else {
			tgtView = focus.tgtFlipDose
		}
		var minTgtR float64
		if tgtView != nil {
			tgtFreq, tgtN := doseFreq(tgtView)
			minTgtR = minAbsCor(tgtFreq, tgtN)
		} else {
			minTgtR = math.Inf(1)
		}

		var same, opp, informative int
		for k, anchor := range slots {
			if k == j || anchor.Rejected {
				continue
			}
			if anchor.FreqPhase != PhaseIdentical && anchor.FreqPhase != PhaseOpposite {
				continue
			}
			if anchor.AllelePhase != anchor.FreqPhase && anchor.AllelePhase != PhaseUnknown {
				continue
			}

			refCor, err := Correlation(focus.refDose.Dose, anchor.refDose.Dose)
			if err != nil || math.Abs(refCor) <= minRefR {
				continue
			}

			flipAnchor := anchor.FreqPhase == PhaseOpposite
			var anchorTgtDose *AlleleDose
			if flipAnchor {
				anchorTgtDose = anchor.tgtFlipDose
			} else {
				anchorTgtDose = anchor.tgtDose
			}
			if anchorTgtDose == nil {
				continue
			}

			var cor, fCor float64
			haveCor, haveFCor := false, false
			if focus.tgtDose != nil {
				if c, err := Correlation(focus.tgtDose.Dose, anchorTgtDose.Dose); err == nil {
					cor, haveCor = c, true
				}
			}
			if focus.tgtFlipDose != nil {
				if c, err := Correlation(focus.tgtFlipDose.Dose, anchorTgtDose.Dose); err == nil {
					fCor, haveFCor = c, true
				}
			}

			informative++
			if refCor < -minRefR {
				if haveCor && cor < -minTgtR {
					same++
				}
				if haveFCor && fCor < -minTgtR {
					opp++
				}
			} else {
				if haveCor && cor > minTgtR {
					same++
				}
				if haveFCor && fCor > minTgtR {
					opp++
				}
			}
		}

		focus.informativeCnt = informative
		focus.CorPhase = mergePhase(focus.CorPhase, deriveCorVerdict(same, opp))
	}
}

const (
	corMaxInconclusive = 1
	corMinDifference   = 2
)

func deriveCorVerdict(same, opp int) Phase {
	switch {
	case opp <= corMaxInconclusive && same-opp >= corMinDifference:
		return PhaseIdentical
	case same <= corMaxInconclusive && opp-same >= corMinDifference:
		return PhaseOpposite
	case same > corMaxInconclusive && opp > corMaxInconclusive:
		return PhaseInconsistent
	default:
		return PhaseUnknown
	}
}

// WindowEngine drives the sliding window described in spec.md §4.5: it
// pulls matched/rejected events into a bounded slice, fuses
// correlation evidence across the whole resident window, and flushes
// the oldest slots once the window exceeds its overlap retention.
type WindowEngine struct {
	pull  func() (*WindowSlot, bool, error)
	emit  func(*WindowSlot) error
	slots []*WindowSlot
}

func NewWindowEngine(pull func() (*WindowSlot, bool, error), emit func(*WindowSlot) error) *WindowEngine {
	return &WindowEngine{pull: pull, emit: emit}
}

// Run drives the window to completion, emitting every slot exactly
// once in target-marker order.
func (w *WindowEngine) Run() error {
	for {
		finished, err := w.cycle()
		if err != nil {
			return err
		}
		if finished {
			return w.flush(len(w.slots))
		}
	}
}

func (w *WindowEngine) cycle() (finished bool, err error) {
	overlap := windowOverlap
	if len(w.slots) < overlap {
		overlap = len(w.slots)
	}
	overlapStart := len(w.slots) - overlap
	if err := w.flush(overlapStart); err != nil {
		return false, err
	}
	w.slots = append([]*WindowSlot(nil), w.slots[overlapStart:]...)

	for len(w.slots) < 2*windowOverlap {
		slot, ok, err := w.pull()
		if err != nil {
			return false, err
		}
		if !ok {
			finished = true
			break
		}
		w.slots = append(w.slots, slot)
	}
	updateCorPhase(w.slots)
	return finished, nil
}

func (w *WindowEngine) flush(n int) error {
	for i := 0; i < n; i++ {
		if err := w.emit(w.slots[i]); err != nil {
			return err
		}
	}
	return nil
}
