// Package core provides the data models and validation logic shared by the
// grouping and similarity engines.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Spectrum represents a single library entry: a precursor with its
// (predicted) fragment peaks.
type Spectrum struct {
	// ID is the ordinal of the entry in its library file.
	ID int

	// Required fields
	Sequence    string  // Peptide sequence, possibly with inline modifications
	Charge      int     // Precursor charge state
	PrecursorMZ float64 // Precursor m/z (the MW header of predicted libraries)
	Peaks       []Peak  // Fragment peaks

	// Optional metadata
	RetentionTime   *float64 // iRT
	CollisionEnergy *float64 // Normalized collision energy
	Modifications   []Modification

	SourceFormat string // msp, sptxt
}

// Peak represents a single m/z, intensity pair with optional metadata.
type Peak struct {
	MZ         float64
	Intensity  float64
	Annotation string // Ion annotation (e.g., "y3", "b2^2")
}

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term
	Name     string // Modification name or accession
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum carries every field the engines need.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Sequence == "" {
		errs = append(errs, "sequence is required")
	}
	if s.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if s.PrecursorMZ <= 0 || math.IsNaN(s.PrecursorMZ) || math.IsInf(s.PrecursorMZ, 0) {
		errs = append(errs, "precursor m/z must be positive")
	}
	if len(s.Peaks) == 0 {
		errs = append(errs, "at least one peak is required")
	}
	if s.RetentionTime != nil && (math.IsNaN(*s.RetentionTime) || math.IsInf(*s.RetentionTime, 0)) {
		errs = append(errs, "retention time must be finite")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	return PeaksSorted(s.Peaks)
}

// PeaksSorted reports whether peaks are in ascending m/z order.
func PeaksSorted(peaks []Peak) bool {
	for i := 1; i < len(peaks); i++ {
		if peaks[i].MZ < peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order. Equal m/z keep their
// relative order.
func (s *Spectrum) SortPeaks() {
	sort.SliceStable(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].MZ < s.Peaks[j].MZ
	})
}

// Name returns the spectrum name in format "Sequence/Charge"
func (s *Spectrum) Name() string {
	return fmt.Sprintf("%s/%d", s.Sequence, s.Charge)
}

// SpectrumSet is a read-only lookup of spectra by ID.
type SpectrumSet map[int]*Spectrum

// NewSpectrumSet indexes spectra by their ID. Later duplicates win.
func NewSpectrumSet(spectra []*Spectrum) SpectrumSet {
	set := make(SpectrumSet, len(spectra))
	for _, spec := range spectra {
		set[spec.ID] = spec
	}
	return set
}

// Spectrum returns the spectrum with the given ID.
func (s SpectrumSet) Spectrum(id int) (*Spectrum, bool) {
	spec, ok := s[id]
	return spec, ok
}
