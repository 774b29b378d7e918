// Package sptxt provides streaming readers for SPTXT (SpectraST) format spectral libraries
package sptxt

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader"
)

var (
	errMissingName      = errors.New("missing Name field")
	errMissingPrecursor = errors.New("missing PrecursorMZ")
	errMissingPeaks     = errors.New("no peaks")

	// inlineMod matches "C[160]" or "n[305]": the bracket holds the nominal
	// mass of the modified residue (or of the modified N-terminus).
	inlineMod = regexp.MustCompile(`([a-zA-Z]?)\[(\d+(?:\.\d+)?)\]`)
)

// Reader provides streaming access to SPTXT format files
type Reader struct {
	blocks      *reader.BlockScanner
	table       *core.MassTable
	ordinal     int
	currentSpec *core.Spectrum
	rejected    []error
	err         error
}

// NewReader creates a new SPTXT reader. A nil table selects the default one.
func NewReader(r io.Reader, table *core.MassTable) *Reader {
	if table == nil {
		table = core.DefaultMassTable()
	}

	return &Reader{
		blocks: reader.NewBlockScanner(r, func(line string) bool {
			return strings.HasPrefix(line, "Name:")
		}),
		table: table,
	}
}

// Next advances to the next well-formed spectrum. Malformed records are
// skipped and collected in Rejected.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	for {
		block, err := r.blocks.Next()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}

		// library preamble
		if strings.HasPrefix(block.Lines[0], "###") {
			continue
		}

		id := r.ordinal
		r.ordinal++

		spec, err := r.parseBlock(block)
		if err != nil {
			r.rejected = append(r.rejected, err)
			continue
		}
		spec.ID = id
		r.currentSpec = spec
		return true
	}
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Rejected returns the *reader.RecordError of every skipped record.
func (r *Reader) Rejected() []error {
	return r.rejected
}

// ReadAll reads every well-formed spectrum.
func (r *Reader) ReadAll() ([]*core.Spectrum, error) {
	var spectra []*core.Spectrum
	for r.Next() {
		spectra = append(spectra, r.Spectrum())
	}
	return spectra, r.Err()
}

func (r *Reader) parseBlock(block reader.Block) (*core.Spectrum, error) {
	spec := &core.Spectrum{SourceFormat: "sptxt"}
	name := ""
	fail := func(line int, err error) error {
		return &reader.RecordError{Line: block.Line + line, Name: name, Err: err}
	}

	inPeaks := false
	for i, line := range block.Lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if inPeaks {
			peak, err := reader.ParsePeak(line)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.Peaks = append(spec.Peaks, peak)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			name = value
			if err := r.parseName(spec, value); err != nil {
				return nil, fail(i, err)
			}

		case "PrecursorMZ":
			mz, err := reader.ParseFloatField(key, value)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.PrecursorMZ = mz

		case "Comment":
			parseComment(spec, value)

		case "NumPeaks":
			if _, err := strconv.Atoi(value); err != nil {
				return nil, fail(i, fmt.Errorf("invalid num peaks: %w", err))
			}
			inPeaks = true
		}
	}

	switch {
	case spec.Sequence == "":
		return nil, fail(0, errMissingName)
	case spec.PrecursorMZ <= 0:
		return nil, fail(0, errMissingPrecursor)
	case len(spec.Peaks) == 0:
		return nil, fail(0, errMissingPeaks)
	}

	spec.SortPeaks()
	if err := spec.Validate(); err != nil {
		return nil, fail(0, err)
	}
	return spec, nil
}

// parseName extracts sequence, charge, and modifications from Name field
// Format: "n[305]AAAAQDEITGDGTTTVVC[160]LVGELLR/3"
func (r *Reader) parseName(spec *core.Spectrum, name string) error {
	rawSeq, charge, err := reader.ParseName(name)
	if err != nil {
		return err
	}
	spec.Charge = charge

	sequence, mods, err := r.parseInlineModifications(rawSeq)
	if err != nil {
		return fmt.Errorf("failed to parse modifications from sequence: %w", err)
	}
	spec.Sequence = sequence
	spec.Modifications = mods
	return nil
}

// parseInlineModifications converts the nominal masses in brackets into
// mass deltas against the unmodified residue.
func (r *Reader) parseInlineModifications(rawSeq string) (string, []core.Modification, error) {
	var sequence strings.Builder
	var mods []core.Modification
	position := 0

	lastIdx := 0
	for _, match := range inlineMod.FindAllStringSubmatchIndex(rawSeq, -1) {
		plain := rawSeq[lastIdx:match[0]]
		sequence.WriteString(plain)
		position += len(plain)

		aa := rawSeq[match[2]:match[3]]
		massStr := rawSeq[match[4]:match[5]]
		total, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid modification mass '%s': %w", massStr, err)
		}

		switch {
		case aa == "n" || aa == "":
			mods = append(mods, core.Modification{
				Mass:     total - core.MassH,
				Position: -1,
				Name:     "[" + massStr + "]",
			})
		default:
			residue, ok := r.table.ResidueMass(rune(aa[0]))
			if !ok {
				return "", nil, &core.UnrecognizedTokenError{Sequence: rawSeq, Token: aa, Position: match[2]}
			}
			sequence.WriteString(aa)
			mods = append(mods, core.Modification{
				Mass:     total - residue,
				Position: position,
				Name:     aa + "[" + massStr + "]",
			})
			position++
		}

		lastIdx = match[1]
	}

	sequence.WriteString(rawSeq[lastIdx:])
	return sequence.String(), mods, nil
}

// parseComment extracts metadata from Comment field
func parseComment(spec *core.Spectrum, comment string) {
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				spec.CollisionEnergy = &ce
			}

		case "iRT", "RetentionTime":
			// may be a comma-separated list; take the first value
			first, _, _ := strings.Cut(value, ",")
			if rt, err := strconv.ParseFloat(first, 64); err == nil && spec.RetentionTime == nil {
				spec.RetentionTime = &rt
			}
		}
	}
}
