// Package grouping finds precursor pairs whose mass and retention index are
// close enough for their spectra to be confused.
package grouping

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
)

// ErrInvalidTolerance is returned for negative or non-finite tolerances.
var ErrInvalidTolerance = errors.New("invalid tolerance")

// radiusSlack widens the index query so rounding in the Euclidean distance
// never hides a pair the exact predicate accepts.
const radiusSlack = 1e-9

// Params configures the proximity test.
type Params struct {
	MassTolerance      float64 // ppm when UsePPM, else absolute
	RetentionTolerance float64 // absolute
	UsePPM             bool
}

// Validate checks that both tolerances are usable.
func (p Params) Validate() error {
	if math.IsNaN(p.MassTolerance) || math.IsInf(p.MassTolerance, 0) || p.MassTolerance < 0 {
		return fmt.Errorf("%w: mass tolerance %v", ErrInvalidTolerance, p.MassTolerance)
	}
	if math.IsNaN(p.RetentionTolerance) || math.IsInf(p.RetentionTolerance, 0) || p.RetentionTolerance < 0 {
		return fmt.Errorf("%w: retention tolerance %v", ErrInvalidTolerance, p.RetentionTolerance)
	}
	return nil
}

// massWindow is the allowed mass difference when ref is the reference mass.
func (p Params) massWindow(ref float64) float64 {
	if p.UsePPM {
		return ref * p.MassTolerance / 1e6
	}
	return p.MassTolerance
}

// Pair is an unordered candidate pair in canonical form (A < B).
type Pair struct {
	A, B int
}

func newPair(x, y int) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// WithinTolerance reports whether two records pass both the mass and the
// retention test. In ppm mode the window is scaled by the mass of the record
// with the smaller ID, whatever the argument order.
func WithinTolerance(x, y precursor.Record, p Params) bool {
	if y.ID < x.ID {
		x, y = y, x
	}
	return within(x, y, p)
}

// within assumes ref.ID < other.ID.
func within(ref, other precursor.Record, p Params) bool {
	return math.Abs(ref.Mass-other.Mass) <= p.massWindow(ref.Mass) &&
		math.Abs(ref.RetentionIndex-other.RetentionIndex) <= p.RetentionTolerance
}

// Group returns every pair of records within tolerance, sorted by (A, B).
// A 2-d tree over (mass, retention index) supplies candidates inside a radius
// that covers the worst case at each point's mass; each candidate is then
// re-checked with the exact predicate.
func Group(ix *precursor.Index, p Params) ([]Pair, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	recs := ix.Records()
	pts := make([]kdPoint, len(recs))
	for i, rec := range recs {
		pts[i] = kdPoint{coord: [2]float64{rec.Mass, rec.RetentionIndex}, ord: i}
	}
	tree := newKDTree(pts)

	var pairs []Pair
	for i, rec := range recs {
		radius := math.Hypot(p.massWindow(rec.Mass), p.RetentionTolerance) * (1 + radiusSlack)
		center := [2]float64{rec.Mass, rec.RetentionIndex}
		tree.inRadius(center, radius, func(j int) {
			// records are ID-ordered, so j > i means rec is the reference
			if j <= i {
				return
			}
			if within(rec, recs[j], p) {
				pairs = append(pairs, Pair{A: rec.ID, B: recs[j].ID})
			}
		})
	}

	sortPairs(pairs)
	return pairs, nil
}

// GroupNaive compares every pair of records. It returns the same pairs as
// Group and is only practical for small inputs.
func GroupNaive(ix *precursor.Index, p Params) ([]Pair, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	recs := ix.Records()
	var pairs []Pair
	for i := range recs {
		for j := i + 1; j < len(recs); j++ {
			if within(recs[i], recs[j], p) {
				pairs = append(pairs, newPair(recs[i].ID, recs[j].ID))
			}
		}
	}
	return pairs, nil
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}
