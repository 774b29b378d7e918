package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/digest"
)

// PeptideHeader is the header of a digestion output file.
var PeptideHeader = []string{"protein", "peptide", "start", "charge", "neutral_mass", "precursor_mz"}

// PeptideWriter writes one row per peptide and charge state.
type PeptideWriter struct {
	cw      *csv.Writer
	table   *core.MassTable
	charges []int
	rows    int
}

// NewPeptideWriter writes the header and returns a writer. A nil table
// selects the default one.
func NewPeptideWriter(w io.Writer, table *core.MassTable, charges []int) (*PeptideWriter, error) {
	if len(charges) == 0 {
		return nil, fmt.Errorf("at least one charge state is required")
	}
	for _, z := range charges {
		if z <= 0 {
			return nil, fmt.Errorf("charge must be positive, got %d", z)
		}
	}
	if table == nil {
		table = core.DefaultMassTable()
	}

	pw := &PeptideWriter{cw: csv.NewWriter(w), table: table, charges: charges}
	if err := pw.cw.Write(PeptideHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return pw, nil
}

// Write writes a peptide once per charge state. Peptides with residues the
// mass table does not know are returned as an error and not written.
func (pw *PeptideWriter) Write(p digest.Peptide) error {
	mass, err := pw.table.NeutralMass(p.Sequence)
	if err != nil {
		return err
	}

	for _, z := range pw.charges {
		mz := (mass + float64(z)*core.ProtonMass) / float64(z)
		row := []string{
			p.Protein, p.Sequence,
			strconv.Itoa(p.Start), strconv.Itoa(z),
			strconv.FormatFloat(mass, 'f', 6, 64),
			strconv.FormatFloat(mz, 'f', 6, 64),
		}
		if err := pw.cw.Write(row); err != nil {
			return fmt.Errorf("failed to write peptide %s: %w", p.Sequence, err)
		}
		pw.rows++
	}
	return nil
}

// Rows returns the number of rows written.
func (pw *PeptideWriter) Rows() int {
	return pw.rows
}

// Flush flushes buffered rows.
func (pw *PeptideWriter) Flush() error {
	pw.cw.Flush()
	return pw.cw.Error()
}
