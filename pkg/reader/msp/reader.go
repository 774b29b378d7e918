// Package msp provides streaming readers for MSP (Prosit) format spectral libraries
package msp

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader"
)

var (
	errMissingName      = errors.New("missing Name field")
	errMissingPrecursor = errors.New("missing MW or Parent precursor m/z")
	errMissingPeaks     = errors.New("no peaks")
)

// Reader provides streaming access to MSP format files
type Reader struct {
	blocks      *reader.BlockScanner
	table       *core.MassTable
	ordinal     int
	currentSpec *core.Spectrum
	rejected    []error
	err         error
}

// NewReader creates a new MSP reader. A nil table selects the default one.
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
// skipped and collected in Rejected. Returns false at EOF or on a read error.
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

// parseBlock turns one record into a spectrum
func (r *Reader) parseBlock(block reader.Block) (*core.Spectrum, error) {
	spec := &core.Spectrum{SourceFormat: "msp"}
	name := ""
	fail := func(line int, err error) error {
		return &reader.RecordError{Line: block.Line + line, Name: name, Err: err}
	}

	inPeaks := false
	for i, line := range block.Lines {
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
			seq, charge, err := reader.ParseName(value)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.Sequence, spec.Charge = seq, charge

		case "MW":
			mw, err := reader.ParseFloatField(key, value)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.PrecursorMZ = mw

		case "Collision_energy":
			ce, err := reader.ParseFloatField(key, value)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.CollisionEnergy = &ce

		case "iRT":
			rt, err := reader.ParseFloatField(key, value)
			if err != nil {
				return nil, fail(i, err)
			}
			spec.RetentionTime = &rt

		case "Comment":
			r.parseComment(spec, value)

		case "Num peaks", "NumPeaks":
			if _, err := strconv.Atoi(value); err != nil {
				return nil, fail(i, fmt.Errorf("invalid num peaks: %w", err))
			}
			// The declared count is not trusted; peaks run to the end of the record.
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

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(spec *core.Spectrum, comment string) {
	// Comment format: key=value key=value...
	// Example: Parent=414.71 Collision_energy=35 Mods=1/-1,R,TMT_Pro iRT=61.01

	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if spec.PrecursorMZ == 0 {
				if mz, err := strconv.ParseFloat(value, 64); err == nil {
					spec.PrecursorMZ = mz
				}
			}

		case "Collision_energy", "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil && spec.CollisionEnergy == nil {
				spec.CollisionEnergy = &ce
			}

		case "iRT", "RetentionTime":
			if rt, err := strconv.ParseFloat(value, 64); err == nil && spec.RetentionTime == nil {
				spec.RetentionTime = &rt
			}

		case "Mods":
			spec.Modifications = append(spec.Modifications, parseMods(r.table, value)...)
		}
	}
}

// parseMods parses "count/pos,AA,Name/pos,AA,Name". Unknown names are dropped.
func parseMods(table *core.MassTable, mods string) []core.Modification {
	parts := strings.Split(mods, "/")
	if len(parts) < 2 {
		return nil
	}

	var out []core.Modification
	for _, part := range parts[1:] {
		fields := strings.Split(part, ",")
		if len(fields) < 3 {
			continue
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		mass, ok := table.ModificationMass(fields[2])
		if !ok {
			continue
		}
		out = append(out, core.Modification{Mass: mass, Position: pos, Name: fields[2]})
	}
	return out
}
