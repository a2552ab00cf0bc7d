// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"io"
)

// logHeader is the tab-separated header of the `.log` companion
// output (spec.md §6).
const logHeader = "CHROM\tPOS\tID\tREF\tALT\tALLELE\tFREQ\tR2\tSUMMARY\tINFO\n"

// Emitter is component C9: it turns each WindowSlot the window engine
// flushes into one log line, and, for a slot whose fused verdict is
// decisive, one conformed VCF record.
type Emitter struct {
	vcf      *VCFWriter
	log      io.Writer
	registry *chromRegistry
	strict   bool
}

func NewEmitter(vcf *VCFWriter, logw io.Writer, registry *chromRegistry, strict bool) *Emitter {
	return &Emitter{vcf: vcf, log: logw, registry: registry, strict: strict}
}

func (e *Emitter) WriteLogHeader() error {
	_, err := io.WriteString(e.log, logHeader)
	return err
}

// Emit logs exactly one line per slot, in the order slots are flushed
// (spec.md §8 property 5: monotone per-target-marker logs), and writes
// a VCF record for every slot whose fused verdict resolves to a
// strand.
func (e *Emitter) Emit(slot *WindowSlot) error {
	if slot.Rejected {
		return e.emitRejected(slot)
	}
	return e.emitMatched(slot)
}

func (e *Emitter) emitRejected(slot *WindowSlot) error {
	ref, alt := slot.Target.RefAlt()
	_, err := fmt.Fprintf(e.log, "%s\t%d\t%s\t%s\t%s\tNOT_PERFORMED\tNOT_PERFORMED\tNOT_PERFORMED\tREMOVED\t%s\n",
		e.registry.Name(slot.Target.Chrom), slot.Target.Pos, slot.Target.IDField(), ref, alt, slot.RejectReason)
	return err
}

func (e *Emitter) emitMatched(slot *WindowSlot) error {
	effective := slot.Effective(e.strict)
	ref, alt := slot.Target.RefAlt()
	result := "FAIL"
	if effective == PhaseIdentical || effective == PhaseOpposite {
		result = "PASS"
	}
	_, err := fmt.Fprintf(e.log, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		e.registry.Name(slot.Target.Chrom), slot.Target.Pos, slot.Target.IDField(), ref, alt,
		slot.AllelePhase, slot.FreqPhase, slot.CorPhase, result, effective)
	if err != nil {
		return err
	}

	chromName := e.registry.Name(slot.Ref.Chrom)
	switch effective {
	case PhaseIdentical:
		if slot.tgtDose == nil {
			return nil
		}
		return e.vcf.WriteRecord(chromName, slot.Ref, slot.tgtDose.Pi, slot.TgtUnfiltered)
	case PhaseOpposite:
		if slot.tgtFlipDose == nil {
			return nil
		}
		return e.vcf.WriteRecord(chromName, slot.Ref, slot.tgtFlipDose.Pi, slot.TgtUnfiltered)
	default:
		return nil
	}
}
