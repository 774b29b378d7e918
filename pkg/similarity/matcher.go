// Package similarity aligns fragment peak lists and scores them with the
// normalized spectral angle.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

var (
	// ErrUnsortedPeaks is returned when a peak list is not in ascending m/z order.
	ErrUnsortedPeaks = errors.New("peaks must be sorted by m/z")

	// ErrInvalidTolerance is returned for negative or non-finite tolerances.
	ErrInvalidTolerance = errors.New("invalid match tolerance")
)

// Tolerance decides whether two fragment m/z values match. A pair matches
// when the difference is within Absolute, or within PPM of either m/z.
type Tolerance struct {
	Absolute float64
	PPM      float64
}

// Validate checks that both tolerances are usable.
func (t Tolerance) Validate() error {
	for _, v := range []float64{t.Absolute, t.PPM} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %+v", ErrInvalidTolerance, t)
		}
	}
	return nil
}

// Matches reports whether a and b are within tolerance.
func (t Tolerance) Matches(a, b float64) bool {
	diff := math.Abs(b - a)
	return diff <= t.Absolute || diff <= t.ppmWindow(a) || diff <= t.ppmWindow(b)
}

func (t Tolerance) ppmWindow(mz float64) float64 {
	return mz * t.PPM * 1e-6
}

// window is the widest difference mz can match from below.
func (t Tolerance) window(mz float64) float64 {
	return math.Max(t.Absolute, t.ppmWindow(mz))
}

// Slot is one side of an aligned row. Absent slots stand for "no peak",
// which is not the same as a zero-intensity peak.
type Slot struct {
	MZ        float64
	Intensity float64
	Present   bool
}

func present(p core.Peak) Slot {
	return Slot{MZ: p.MZ, Intensity: p.Intensity, Present: true}
}

// AlignedPeakSet is the common index space of two matched spectra. Row i of
// A and row i of B are the same matched (or one-sided) peak slot.
type AlignedPeakSet struct {
	A []Slot
	B []Slot
}

// Len returns the number of rows.
func (s AlignedPeakSet) Len() int { return len(s.A) }

// Counts returns the number of matched rows and of rows present on one side
// only.
func (s AlignedPeakSet) Counts() (matched, onlyA, onlyB int) {
	for i := range s.A {
		switch {
		case s.A[i].Present && s.B[i].Present:
			matched++
		case s.A[i].Present:
			onlyA++
		default:
			onlyB++
		}
	}
	return matched, onlyA, onlyB
}

// Match aligns two ascending peak lists. Every peak of a, in order, takes the
// first still-unmatched peak of b (lowest m/z) within tolerance; matches are
// one-to-one. Rows follow a's order, then b's unmatched peaks in b's order.
func Match(a, b []core.Peak, tol Tolerance) (AlignedPeakSet, error) {
	if err := tol.Validate(); err != nil {
		return AlignedPeakSet{}, err
	}
	if !core.PeaksSorted(a) || !core.PeaksSorted(b) {
		return AlignedPeakSet{}, ErrUnsortedPeaks
	}

	rows := len(a) + len(b)
	set := AlignedPeakSet{
		A: make([]Slot, 0, rows),
		B: make([]Slot, 0, rows),
	}
	matched := make([]bool, len(b))
	earlyStop := tol.PPM < 1e6

	for _, pa := range a {
		// nothing below pa.MZ - window(pa.MZ) can match pa
		w := tol.window(pa.MZ)
		start := sort.Search(len(b), func(j int) bool { return pa.MZ-b[j].MZ <= w })

		partner := -1
		for j := start; j < len(b); j++ {
			if matched[j] {
				continue
			}
			if tol.Matches(pa.MZ, b[j].MZ) {
				partner = j
				break
			}
			if earlyStop && b[j].MZ-pa.MZ > 2*tol.window(b[j].MZ) {
				break
			}
		}

		set.A = append(set.A, present(pa))
		if partner < 0 {
			set.B = append(set.B, Slot{})
			continue
		}
		matched[partner] = true
		set.B = append(set.B, present(b[partner]))
	}

	for j, pb := range b {
		if matched[j] {
			continue
		}
		set.A = append(set.A, Slot{})
		set.B = append(set.B, present(pb))
	}

	return set, nil
}
