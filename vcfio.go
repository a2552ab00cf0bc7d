// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/klauspost/pgzip"
)

// multiCloser closes a sequence of io.Closers in reverse order,
// wrapping a compressed stream and the underlying file it sits on.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// VCFReader streams marker/genotype pairs out of a gzip-compressed
// VCF4.x file (spec.md §6), restricted to one chromosome range and
// assigning chromosome indices through a shared chromRegistry.
type VCFReader struct {
	br       *bufio.Reader
	closer   io.Closer
	samples  []string
	registry *chromRegistry
	window   ChromRange
}

// OpenVCFReader opens path, reads its header, and returns a reader
// positioned at the first data line.
func OpenVCFReader(path string, registry *chromRegistry, window ChromRange) (*VCFReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r := &VCFReader{
		br:       bufio.NewReaderSize(gz, 1<<20),
		closer:   multiCloser{gz, f},
		registry: registry,
		window:   window,
	}
	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (r *VCFReader) Close() error { return r.closer.Close() }

// SampleNames returns the sample column names in file order,
// unaffected by any later excludesamples filtering.
func (r *VCFReader) SampleNames() []string { return r.samples }

func (r *VCFReader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line == "" && err == io.EOF {
		return "", io.EOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *VCFReader) readHeader() error {
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return fmt.Errorf("truncated VCF: no #CHROM header line")
		} else if err != nil {
			return err
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if !strings.HasPrefix(line, "#CHROM") {
			return fmt.Errorf("expected #CHROM header line, got %q", line)
		}
		cols := strings.Split(line, "\t")
		if len(cols) > 9 {
			r.samples = append([]string(nil), cols[9:]...)
		}
		return nil
	}
}

// Next returns the next marker/record pair inside the reader's
// chromosome window, or io.EOF once the file is exhausted.
func (r *VCFReader) Next() (*Marker, *Record, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, nil, err
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 8 {
			return nil, nil, fmt.Errorf("malformed VCF record: fewer than 8 fields: %q", line)
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("malformed POS %q: %w", fields[1], err)
		}
		if !r.window.Contains(fields[0], pos) {
			continue
		}
		marker := r.parseMarker(fields, pos)
		rec, err := r.parseRecord(marker, fields)
		if err != nil {
			return nil, nil, err
		}
		return marker, rec, nil
	}
}

// ScanMarkers consumes the reader to the end, returning every marker
// in its chromosome window without parsing genotype columns. It is
// the cheap first pass behind the reference and target MarkerIndex
// (spec.md §3 component C3): positions and alleles only, no sample
// data, so the one-time marker prescan stays fast on wide cohorts.
func (r *VCFReader) ScanMarkers() ([]*Marker, error) {
	var out []*Marker
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("malformed VCF record: %q", line)
		}
		chrom := line[:tab]
		rest := line[tab+1:]
		fields := strings.SplitN(rest, "\t", 7)
		if len(fields) < 7 {
			return nil, fmt.Errorf("malformed VCF record: fewer than 8 fields: %q", line)
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("malformed POS %q: %w", fields[0], err)
		}
		if !r.window.Contains(chrom, pos) {
			continue
		}
		// fields: [POS ID REF ALT QUAL FILTER INFO...]
		full := append([]string{chrom}, fields...)
		out = append(out, r.parseMarker(full, pos))
	}
}

func (r *VCFReader) parseMarker(fields []string, pos int) *Marker {
	m := &Marker{Chrom: r.registry.GetOrAssign(fields[0]), Pos: pos}
	if fields[2] != "." && fields[2] != "" {
		m.IDs = strings.Split(fields[2], ";")
	}
	m.Alleles = append(m.Alleles, fields[3])
	if fields[4] != "." && fields[4] != "" {
		m.Alleles = append(m.Alleles, strings.Split(fields[4], ",")...)
	}
	if len(fields) > 7 {
		for _, tok := range strings.Split(fields[7], ";") {
			if strings.HasPrefix(tok, "END=") {
				if end, err := strconv.Atoi(tok[4:]); err == nil {
					m.End, m.HasEnd = end, true
				}
			}
		}
	}
	return m
}

func (r *VCFReader) parseRecord(marker *Marker, fields []string) (*Record, error) {
	rec := NewRecord(marker, len(r.samples))
	if len(r.samples) == 0 {
		return rec, nil
	}
	if len(fields) < 9 {
		return nil, fmt.Errorf("marker %v: no FORMAT column but samples are present", marker)
	}
	gtIdx := -1
	for i, key := range strings.Split(fields[8], ":") {
		if key == "GT" {
			gtIdx = i
			break
		}
	}
	if gtIdx < 0 {
		return nil, fmt.Errorf("marker %v: FORMAT column has no GT subfield", marker)
	}
	if len(fields) != 9+len(r.samples) {
		return nil, fmt.Errorf("marker %v: expected %d sample columns, got %d", marker, len(r.samples), len(fields)-9)
	}
	for i, col := range fields[9:] {
		sub := strings.Split(col, ":")
		if gtIdx >= len(sub) {
			return nil, fmt.Errorf("marker %v: sample %d has no GT subfield", marker, i)
		}
		h1, h2, phased, err := parseGT(sub[gtIdx])
		if err != nil {
			return nil, fmt.Errorf("marker %v: sample %d: %w", marker, i, err)
		}
		rec.Hap1[i], rec.Hap2[i], rec.Phased[i] = h1, h2, phased
	}
	return rec, nil
}

func parseGT(s string) (h1, h2 int, phased bool, err error) {
	idx := strings.IndexAny(s, "|/")
	if idx < 0 {
		return 0, 0, false, fmt.Errorf("malformed GT %q", s)
	}
	phased = s[idx] == '|'
	if h1, err = parseAllele(s[:idx]); err != nil {
		return 0, 0, false, err
	}
	if h2, err = parseAllele(s[idx+1:]); err != nil {
		return 0, 0, false, err
	}
	return h1, h2, phased, nil
}

func parseAllele(s string) (int, error) {
	if s == "." {
		return missingAllele, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("malformed allele %q", s)
	}
	return n, nil
}

// Advance reads forward until it produces the marker matching
// expected (by position and allele list), and returns its record.
// expected comes from an earlier prescan of the same file, so a
// mismatch or premature EOF means the file changed between passes.
func (r *VCFReader) Advance(expected *Marker) (*Marker, *Record, error) {
	for {
		m, rec, err := r.Next()
		if err != nil {
			return nil, nil, err
		}
		if markerKey(m) == markerKey(expected) {
			return m, rec, nil
		}
		if m.Pos > expected.Pos {
			return nil, nil, fmt.Errorf("expected marker at %d, found %d instead", expected.Pos, m.Pos)
		}
	}
}

func markerKey(m *Marker) string {
	return strconv.Itoa(m.Pos) + "|" + strings.Join(m.Alleles, ",")
}

// VCFWriter writes the conformed pvcf-style output file: one FORMAT=GT
// record per variant the alignment accepted, in the orientation that
// matched the reference, against the target file's original (not
// excludesamples-filtered) sample columns. Grounded on export.go's
// formatPVCF, the teacher's own minimal VCF emitter.
type VCFWriter struct {
	w      *bufio.Writer
	closer io.Closer
}

func CreateVCFWriter(path string) (*VCFWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	gz := pgzip.NewWriter(f)
	return &VCFWriter{w: bufio.NewWriterSize(gz, 1<<20), closer: multiCloser{gz, f}}, nil
}

func (w *VCFWriter) WriteHeader(sampleNames []string) error {
	fmt.Fprintln(w.w, `##fileformat=VCFv4.2`)
	fmt.Fprintf(w.w, "##filedate=%s\n", time.Now().Format("20060102"))
	fmt.Fprintf(w.w, "##source=%s\n", "lightning "+cmd.Version.String())
	fmt.Fprintln(w.w, `##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`)
	fmt.Fprint(w.w, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, s := range sampleNames {
		fmt.Fprintf(w.w, "\t%s", s)
	}
	_, err := fmt.Fprint(w.w, "\n")
	return err
}

// WriteRecord emits one conformed record: ref's CHROM/POS/REF/ALT with
// genotypes drawn from tgt, remapped through pi (target allele index
// -> reference allele index) so the output always speaks the
// reference's allele numbering.
func (w *VCFWriter) WriteRecord(chromName string, ref *Marker, pi []int, tgt *Record) error {
	refAllele, altAllele := ref.RefAlt()
	info := "."
	if ref.HasEnd {
		info = fmt.Sprintf("END=%d", ref.End)
	}
	if _, err := fmt.Fprintf(w.w, "%s\t%d\t%s\t%s\t%s\t.\tPASS\t%s\tGT", chromName, ref.Pos, ref.IDField(), refAllele, altAllele, info); err != nil {
		return err
	}
	for i := 0; i < tgt.NSamples(); i++ {
		a1, a2 := tgt.Hap1[i], tgt.Hap2[i]
		sep := byte('/')
		if tgt.Phased[i] {
			sep = '|'
		}
		s1, s2 := ".", "."
		if a1 != missingAllele {
			s1 = strconv.Itoa(pi[a1])
		}
		if a2 != missingAllele {
			s2 = strconv.Itoa(pi[a2])
		}
		if _, err := fmt.Fprintf(w.w, "\t%s%c%s", s1, sep, s2); err != nil {
			return err
		}
	}
	_, err := w.w.Write([]byte{'\n'})
	return err
}

func (w *VCFWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.closer.Close()
}
