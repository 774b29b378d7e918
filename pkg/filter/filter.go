// Package filter provides peak preprocessing applied to library spectra
// before they are scored.
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN              int      // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff   float64  // Keep only peaks at or above this % of base peak (0 = no cutoff)
	IonTypes          []string // Keep only specified ion types (nil = all)
	DropZeroIntensity bool     // Remove peaks with zero intensity
}

// Validate checks the configured limits.
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be non-negative, got %d", c.TopN)
	}
	if math.IsNaN(c.IntensityCutoff) || c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return fmt.Errorf("intensity cutoff must be between 0 and 100, got %v", c.IntensityCutoff)
	}
	return nil
}

// Enabled reports whether Apply would change anything.
func (c *Config) Enabled() bool {
	return c.TopN > 0 || c.IntensityCutoff > 0 || len(c.IonTypes) > 0 || c.DropZeroIntensity
}

// Apply applies all configured filters to a spectrum. The peaks stay sorted
// by m/z. A spectrum may be left without peaks.
func (c *Config) Apply(spec *core.Spectrum) {
	if c.DropZeroIntensity {
		RemoveZeroIntensityPeaks(spec)
	}

	// Filter by ion type first
	if len(c.IonTypes) > 0 {
		c.filterByIonType(spec)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	// Ensure peaks are sorted after all filtering
	spec.SortPeaks()
}

// ApplyAll filters every spectrum and returns those that still have peaks,
// plus the IDs of the ones that were emptied.
func (c *Config) ApplyAll(spectra []*core.Spectrum) (kept []*core.Spectrum, emptied []int) {
	kept = spectra[:0:0]
	for _, spec := range spectra {
		c.Apply(spec)
		if len(spec.Peaks) == 0 {
			emptied = append(emptied, spec.ID)
			continue
		}
		kept = append(kept, spec)
	}
	return kept, emptied
}

// filterByIonType keeps only peaks matching specified ion types
func (c *Config) filterByIonType(spec *core.Spectrum) {
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if matchesIonType(peak.Annotation, c.IonTypes) {
			filtered = append(filtered, peak)
		}
	}

	spec.Peaks = filtered
}

// matchesIonType checks if an annotation matches any of the allowed ion types
func matchesIonType(annotation string, ionTypes []string) bool {
	if annotation == "" {
		return false
	}

	for _, ionType := range ionTypes {
		// Match ion type at start of annotation (e.g., "y3", "b2^2")
		if strings.HasPrefix(annotation, ionType) {
			return true
		}
	}
	return false
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	// Find maximum intensity
	maxIntensity := 0.0
	for _, peak := range spec.Peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	spec.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks. Ties keep the lower m/z.
func (c *Config) filterTopN(spec *core.Spectrum) {
	if len(spec.Peaks) <= c.TopN {
		return
	}

	peaks := make([]core.Peak, len(spec.Peaks))
	copy(peaks, spec.Peaks)

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	spec.Peaks = peaks[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}
