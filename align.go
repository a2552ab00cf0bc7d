// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// aligner is the `align` subcommand: it wires components C1-C9 into
// the strand-reconciliation pipeline described in spec.md §4-§6.
type aligner struct {
	refPath            string
	gtPath             string
	chromArg           string
	outPath            string
	match              string
	strict             bool
	excludeSamplesFile string
}

const alignUsage = "usage: %s align ref=<file> gt=<file> chrom=<chrom[:start-end]> out=<prefix> [match=ID|POS] [strict=true|false] [excludesamples=<file>]\n"

func (cmd *aligner) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := cmd.parseArgs(args); err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", prog, err)
		fmt.Fprintf(stderr, alignUsage, prog)
		return 2
	}
	if err := cmd.run(); err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", prog, err)
		return 1
	}
	return 0
}

// parseArgs accepts the key=value arguments of spec.md §6: ref, gt,
// chrom, out are required; match, strict, excludesamples are
// optional.
func (cmd *aligner) parseArgs(args []string) error {
	cmd.match = "ID"
	seen := map[string]bool{}
	for _, arg := range args {
		i := strings.IndexByte(arg, '=')
		if i < 0 {
			return fmt.Errorf("argument %q is not in key=value form", arg)
		}
		key, value := arg[:i], arg[i+1:]
		seen[key] = true
		switch key {
		case "ref":
			cmd.refPath = value
		case "gt":
			cmd.gtPath = value
		case "chrom":
			cmd.chromArg = value
		case "out":
			cmd.outPath = value
		case "match":
			cmd.match = strings.ToUpper(value)
		case "strict":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("strict=%q is not a boolean", value)
			}
			cmd.strict = b
		case "excludesamples":
			cmd.excludeSamplesFile = value
		default:
			return fmt.Errorf("unrecognized argument %q", key)
		}
	}
	for _, req := range []string{"ref", "gt", "chrom", "out"} {
		if !seen[req] {
			return fmt.Errorf("missing required argument %q", req)
		}
	}
	if cmd.match != "ID" && cmd.match != "POS" {
		return fmt.Errorf("match=%q must be ID or POS", cmd.match)
	}
	vcfOut, logOut := cmd.outPath+".vcf.gz", cmd.outPath+".log"
	if vcfOut == cmd.refPath || vcfOut == cmd.gtPath || logOut == cmd.refPath || logOut == cmd.gtPath {
		return fmt.Errorf("output prefix %q collides with an input file", cmd.outPath)
	}
	return nil
}

func (cmd *aligner) run() error {
	window, err := ParseChromArg(cmd.chromArg)
	if err != nil {
		return err
	}

	excludeSet := map[string]bool{}
	if cmd.excludeSamplesFile != "" {
		excludeSet, err = ReadExcludeSamples(cmd.excludeSamplesFile)
		if err != nil {
			return fmt.Errorf("reading excludesamples: %w", err)
		}
	}

	registry := newChromRegistry()

	refIndex, err := scanMarkerIndex(cmd.refPath, registry, window)
	if err != nil {
		return fmt.Errorf("scanning ref: %w", err)
	}
	tgtIndex, err := scanMarkerIndex(cmd.gtPath, registry, window)
	if err != nil {
		return fmt.Errorf("scanning gt: %w", err)
	}

	tgtPrescan, err := OpenVCFReader(cmd.gtPath, registry, window)
	if err != nil {
		return fmt.Errorf("opening gt: %w", err)
	}
	sampleNames := append([]string(nil), tgtPrescan.SampleNames()...)
	tgtPrescan.Close()

	drop := map[int]bool{}
	for i, name := range sampleNames {
		if excludeSet[name] {
			drop[i] = true
		}
	}

	refStream, err := OpenVCFReader(cmd.refPath, registry, window)
	if err != nil {
		return fmt.Errorf("opening ref: %w", err)
	}
	defer refStream.Close()
	tgtStream, err := OpenVCFReader(cmd.gtPath, registry, window)
	if err != nil {
		return fmt.Errorf("opening gt: %w", err)
	}
	defer tgtStream.Close()

	vcfWriter, err := CreateVCFWriter(cmd.outPath + ".vcf.gz")
	if err != nil {
		return fmt.Errorf("creating %s.vcf.gz: %w", cmd.outPath, err)
	}
	defer vcfWriter.Close()
	if err := vcfWriter.WriteHeader(sampleNames); err != nil {
		return fmt.Errorf("writing output header: %w", err)
	}

	logFile, err := os.Create(cmd.outPath + ".log")
	if err != nil {
		return fmt.Errorf("creating %s.log: %w", cmd.outPath, err)
	}
	defer logFile.Close()

	emitter := NewEmitter(vcfWriter, logFile, registry, cmd.strict)
	if err := emitter.WriteLogHeader(); err != nil {
		return err
	}

	matcher := NewMatcher(refIndex, tgtIndex, cmd.match == "ID")
	engine := NewWindowEngine(cmd.pullFunc(matcher, refStream, tgtStream, drop), emitter.Emit)
	if err := engine.Run(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"ref": cmd.refPath, "gt": cmd.gtPath, "out": cmd.outPath}).Info("alignment complete")
	return nil
}

func scanMarkerIndex(path string, registry *chromRegistry, window ChromRange) (*MarkerIndex, error) {
	r, err := OpenVCFReader(path, registry, window)
	if err != nil {
		return nil, err
	}
	markers, err := r.ScanMarkers()
	r.Close()
	if err != nil {
		return nil, err
	}
	return NewMarkerIndex(markers)
}

// pullFunc returns the window engine's pull source: it advances
// matcher one target marker at a time, converting rejects directly to
// slots and matches into fully-built WindowSlots by reading the
// matching records off the two streaming readers (spec.md §5: reads
// proceed lock-step with matching, never buffering a whole file).
func (cmd *aligner) pullFunc(matcher *Matcher, refStream, tgtStream *VCFReader, drop map[int]bool) func() (*WindowSlot, bool, error) {
	return func() (*WindowSlot, bool, error) {
		ev, ok := matcher.Next()
		if !ok {
			return nil, false, nil
		}
		if !ev.Matched {
			return NewRejectedSlot(ev.Target, ev.Reason), true, nil
		}
		refMarker, refRecord, err := refStream.Advance(ev.Pair.Ref)
		if err != nil {
			return nil, false, fmt.Errorf("reference input changed during run: %w", err)
		}
		_, tgtUnfiltered, err := tgtStream.Advance(ev.Pair.Target)
		if err != nil {
			return nil, false, fmt.Errorf("target input changed during run: %w", err)
		}
		tgtFiltered := tgtUnfiltered.Mask(drop)
		pair := MatchedPair{Ref: refMarker, Target: ev.Pair.Target, Strand: ev.Pair.Strand}
		slot, err := NewMatchedSlot(pair, refRecord, tgtFiltered, tgtUnfiltered)
		if err != nil {
			return nil, false, fmt.Errorf("marker %v: %w", ev.Pair.Target, err)
		}
		return slot, true, nil
	}
}
