package similarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

var (
	// ErrUndefinedSimilarity is returned when either weighted vector is all
	// zero, so the normalized dot product has no value.
	ErrUndefinedSimilarity = errors.New("undefined similarity")

	// ErrLengthMismatch is returned for an aligned set whose sides differ in length.
	ErrLengthMismatch = errors.New("aligned peak sets differ in length")

	// ErrInvalidWeights is returned for NaN or infinite exponents.
	ErrInvalidWeights = errors.New("invalid weights")
)

// Weights are the exponents applied to m/z and intensity before the dot
// product: w = mz^MZ * intensity^Intensity.
type Weights struct {
	MZ        float64
	Intensity float64
}

// DefaultWeights ignores m/z and takes the square root of intensities.
func DefaultWeights() Weights {
	return Weights{MZ: 0, Intensity: 0.5}
}

// Validate checks that both exponents are finite.
func (w Weights) Validate() error {
	for _, v := range []float64{w.MZ, w.Intensity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
		}
	}
	return nil
}

func (w Weights) weigh(s Slot) float64 {
	if !s.Present {
		return 0
	}
	return math.Pow(s.MZ, w.MZ) * math.Pow(s.Intensity, w.Intensity)
}

// NormalizedDotProduct computes (Σ wx·wy)² / (Σ wx² · Σ wy²) over the
// aligned rows. Absent slots weigh zero but still count as rows. A zero or
// non-finite sum (e.g. a negative exponent on a zero intensity) has no value.
func NormalizedDotProduct(set AlignedPeakSet, w Weights) (float64, error) {
	if len(set.A) != len(set.B) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(set.A), len(set.B))
	}

	var sxy, sxx, syy float64
	for i := range set.A {
		wx := w.weigh(set.A[i])
		wy := w.weigh(set.B[i])
		sxy += wx * wy
		sxx += wx * wx
		syy += wy * wy
	}

	if sxx == 0 || syy == 0 || !finite(sxx) || !finite(syy) || !finite(sxy) {
		return 0, ErrUndefinedSimilarity
	}
	ndp := (sxy * sxy) / (sxx * syy)
	if !finite(ndp) {
		return 0, ErrUndefinedSimilarity
	}
	return ndp, nil
}

// SpectralAngle returns 1 - 2·acos(ndp)/π, in [0, 1] with 1 for identical
// spectra.
func SpectralAngle(set AlignedPeakSet, w Weights) (float64, error) {
	ndp, err := NormalizedDotProduct(set, w)
	if err != nil {
		return 0, err
	}
	ndp = math.Max(-1, math.Min(1, ndp))
	return 1 - 2*math.Acos(ndp)/math.Pi, nil
}

// Score matches two peak lists and returns their spectral angle similarity.
func Score(a, b []core.Peak, tol Tolerance, w Weights) (float64, error) {
	set, err := Match(a, b, tol)
	if err != nil {
		return 0, err
	}
	return SpectralAngle(set, w)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
