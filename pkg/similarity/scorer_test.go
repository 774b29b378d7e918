package similarity

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

func aligned(mz []float64, ix, iy []float64) AlignedPeakSet {
	var set AlignedPeakSet
	for i := range mz {
		set.A = append(set.A, Slot{MZ: mz[i], Intensity: ix[i], Present: true})
		set.B = append(set.B, Slot{MZ: mz[i], Intensity: iy[i], Present: true})
	}
	return set
}

func TestNormalizedDotProduct(t *testing.T) {
	set := aligned([]float64{100, 200, 300}, []float64{0.1, 0.5, 0.9}, []float64{0.2, 0.4, 0.8})

	ndp, err := NormalizedDotProduct(set, DefaultWeights())
	require.NoError(t, err)
	assert.Greater(t, ndp, 0.0)
	assert.LessOrEqual(t, ndp, 1.0)

	angle, err := SpectralAngle(set, DefaultWeights())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.LessOrEqual(t, angle, 1.0)
}

func TestScoreScenario(t *testing.T) {
	a := []core.Peak{{MZ: 100.00, Intensity: 10}, {MZ: 200.00, Intensity: 20}}
	b := []core.Peak{{MZ: 100.01, Intensity: 8}, {MZ: 300.00, Intensity: 5}}

	score, err := Score(a, b, Tolerance{Absolute: 0.05}, DefaultWeights())
	require.NoError(t, err)

	// sqrt weights: (√80)² / (30 · 13)
	want := 1 - 2*math.Acos(80.0/390.0)/math.Pi
	assert.InDelta(t, want, score, 1e-12)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestScoreIdenticalSpectra(t *testing.T) {
	peaks := []core.Peak{
		{MZ: 147.113, Intensity: 0.12},
		{MZ: 175.119, Intensity: 1.0},
		{MZ: 175.119, Intensity: 0.3},
		{MZ: 262.151, Intensity: 0.47},
		{MZ: 389.214, Intensity: 0.05},
	}

	for _, w := range []Weights{DefaultWeights(), {MZ: 1, Intensity: 1}, {MZ: 3, Intensity: 0.6}} {
		score, err := Score(peaks, peaks, Tolerance{}, w)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score, "weights %+v", w)
	}
}

func TestSelfSimilarityRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	for range 25 {
		peaks := randomPeaks(rng, 1+rng.IntN(60))
		score, err := Score(peaks, peaks, Tolerance{Absolute: 0.02}, DefaultWeights())
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	}
}

func TestScoreRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 1))
	for range 50 {
		a := randomPeaks(rng, 1+rng.IntN(50))
		b := randomPeaks(rng, 1+rng.IntN(50))
		score, err := Score(a, b, Tolerance{Absolute: 0.5}, DefaultWeights())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestScoreDisjointSpectra(t *testing.T) {
	a := []core.Peak{{MZ: 100, Intensity: 4}}
	b := []core.Peak{{MZ: 500, Intensity: 9}}

	score, err := Score(a, b, Tolerance{Absolute: 0.1}, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestUndefinedSimilarity(t *testing.T) {
	zero := []core.Peak{{MZ: 100, Intensity: 0}, {MZ: 200, Intensity: 0}}
	some := []core.Peak{{MZ: 100, Intensity: 5}}

	_, err := Score(zero, some, Tolerance{Absolute: 0.1}, DefaultWeights())
	assert.ErrorIs(t, err, ErrUndefinedSimilarity)

	_, err = Score(nil, nil, Tolerance{}, DefaultWeights())
	assert.ErrorIs(t, err, ErrUndefinedSimilarity)
}

func TestAbsentSlotsWeighZero(t *testing.T) {
	// an absent partner and a zero-intensity partner score the same, but only
	// the absent one is reported as unmatched
	withAbsent := AlignedPeakSet{
		A: []Slot{{MZ: 100, Intensity: 4, Present: true}, {MZ: 200, Intensity: 1, Present: true}},
		B: []Slot{{MZ: 100, Intensity: 4, Present: true}, {}},
	}
	ndp, err := NormalizedDotProduct(withAbsent, DefaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 16.0/(5.0*4.0), ndp, 1e-12)

	_, onlyA, _ := withAbsent.Counts()
	assert.Equal(t, 1, onlyA)
}

func TestLengthMismatch(t *testing.T) {
	set := AlignedPeakSet{A: []Slot{{Present: true, MZ: 1, Intensity: 1}}}
	_, err := NormalizedDotProduct(set, DefaultWeights())
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestZeroIntensityPeakClaimsPartner(t *testing.T) {
	// the zero-intensity A peak is the first within tolerance of B's only
	// peak, so the intense A peak stays unmatched
	a := []core.Peak{{MZ: 100, Intensity: 0}, {MZ: 100.01, Intensity: 10}}
	b := []core.Peak{{MZ: 100.005, Intensity: 10}}

	set, err := Match(a, b, Tolerance{Absolute: 0.02})
	require.NoError(t, err)
	matched, onlyA, onlyB := set.Counts()
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, onlyA)
	assert.Equal(t, 0, onlyB)

	score, err := Score(a, b, Tolerance{Absolute: 0.02}, DefaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-12)
}

func TestNegativeExponentOnZeroIntensity(t *testing.T) {
	a := []core.Peak{{MZ: 100, Intensity: 0}, {MZ: 200, Intensity: 5}}
	b := []core.Peak{{MZ: 100, Intensity: 3}, {MZ: 200, Intensity: 5}}

	score, err := Score(a, b, Tolerance{Absolute: 0.01}, Weights{Intensity: -0.5})
	assert.ErrorIs(t, err, ErrUndefinedSimilarity)
	assert.False(t, math.IsNaN(score))
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.NoError(t, Weights{MZ: 1, Intensity: -0.5}.Validate())
	assert.ErrorIs(t, Weights{MZ: math.NaN()}.Validate(), ErrInvalidWeights)
	assert.ErrorIs(t, Weights{Intensity: math.Inf(1)}.Validate(), ErrInvalidWeights)
}
