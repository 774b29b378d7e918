// Package msp writes spectral libraries in the MSP text format read by
// pkg/reader/msp.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

// Writer streams spectra as MSP records.
type Writer struct {
	w     *bufio.Writer
	count int
}

// NewWriter creates a new MSP writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteSpectrum writes one record followed by a blank line.
func (w *Writer) WriteSpectrum(spec *core.Spectrum) error {
	fmt.Fprintf(w.w, "Name: %s\n", spec.Name())
	fmt.Fprintf(w.w, "MW: %s\n", formatFloat(spec.PrecursorMZ, 6))
	if spec.CollisionEnergy != nil {
		fmt.Fprintf(w.w, "Collision_energy: %s\n", formatFloat(*spec.CollisionEnergy, -1))
	}
	if spec.RetentionTime != nil {
		fmt.Fprintf(w.w, "iRT: %s\n", formatFloat(*spec.RetentionTime, -1))
	}
	fmt.Fprintf(w.w, "Num peaks: %d\n", len(spec.Peaks))
	for _, peak := range spec.Peaks {
		fmt.Fprintf(w.w, "%s\t%s\n", formatFloat(peak.MZ, -1), formatFloat(peak.Intensity, -1))
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write spectrum %s: %w", spec.Name(), err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
