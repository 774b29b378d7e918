package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
	"github.com/ChrisMcGann/TwinSpace/pkg/similarity"
)

type fixture struct {
	ix      *precursor.Index
	spectra core.SpectrumSet
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ix, err := precursor.New([]precursor.Record{
		{ID: 0, Name: "Peptide1/2", Mass: 500, RetentionIndex: 20.5},
		{ID: 1, Name: "Peptide2/2", Mass: 600, RetentionIndex: 25.7},
		{ID: 2, Name: "Peptide3/2", Mass: 600.1, RetentionIndex: 25.9},
		{ID: 3, Name: "Peptide4/2", Mass: 601, RetentionIndex: 26},
	})
	require.NoError(t, err)

	spectra := core.NewSpectrumSet([]*core.Spectrum{
		{ID: 0, Peaks: []core.Peak{{MZ: 100, Intensity: 0.1}, {MZ: 200, Intensity: 0.5}, {MZ: 300, Intensity: 0.9}}},
		{ID: 1, Peaks: []core.Peak{{MZ: 100, Intensity: 0.2}, {MZ: 201, Intensity: 0.4}, {MZ: 299, Intensity: 0.8}}},
		{ID: 2, Peaks: []core.Peak{{MZ: 150, Intensity: 0}}},
		// ID 3 has no spectrum
	})
	return fixture{ix: ix, spectra: spectra}
}

func TestProcessChunk(t *testing.T) {
	f := newFixture(t)
	p := Params{Tolerance: similarity.Tolerance{Absolute: 1}, Weights: similarity.DefaultWeights()}

	results := ProcessChunk([]grouping.Pair{{A: 0, B: 1}, {A: 1, B: 3}, {A: 1, B: 2}}, f.ix, f.spectra, p)
	require.Len(t, results, 3)

	ok := results[0]
	assert.Equal(t, StatusOK, ok.Status)
	assert.True(t, ok.OK())
	assert.Equal(t, "Peptide1/2", ok.NameA)
	assert.Equal(t, "Peptide2/2", ok.NameB)
	assert.Equal(t, 500.0, ok.MassA)
	assert.Equal(t, 25.7, ok.RetentionB)
	assert.Greater(t, ok.Score, 0.0)
	assert.LessOrEqual(t, ok.Score, 1.0)

	missing := results[1]
	assert.Equal(t, StatusUnavailable, missing.Status)
	assert.True(t, math.IsNaN(missing.Score))
	assert.Equal(t, "Peptide4/2", missing.NameB, "pair metadata is kept for unavailable spectra")

	undefined := results[2]
	assert.Equal(t, StatusUndefined, undefined.Status)
	assert.True(t, math.IsNaN(undefined.Score))
}

func TestProcessChunkUnknownPrecursor(t *testing.T) {
	f := newFixture(t)

	results := ProcessChunk([]grouping.Pair{{A: 0, B: 42}}, f.ix, f.spectra, DefaultParams())
	require.Len(t, results, 1)
	assert.Equal(t, StatusUnavailable, results[0].Status)
	assert.Equal(t, "Peptide1/2", results[0].NameA)
}

func TestProcessChunkUnsortedPeaks(t *testing.T) {
	f := newFixture(t)
	f.spectra[3] = &core.Spectrum{ID: 3, Peaks: []core.Peak{{MZ: 300, Intensity: 1}, {MZ: 100, Intensity: 1}}}

	results := ProcessChunk([]grouping.Pair{{A: 1, B: 3}}, f.ix, f.spectra, DefaultParams())
	assert.Equal(t, StatusInvalid, results[0].Status)
}

func TestChunk(t *testing.T) {
	pairs := make([]grouping.Pair, 7)
	for i := range pairs {
		pairs[i] = grouping.Pair{A: i, B: i + 1}
	}

	chunks := Chunk(pairs, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[2], 1)
	assert.Equal(t, grouping.Pair{A: 6, B: 7}, chunks[2][0])

	assert.Empty(t, Chunk(nil, 3))
	assert.Len(t, Chunk(pairs, 0), 1)
}

func TestRunMatchesSequential(t *testing.T) {
	f := newFixture(t)
	p := Params{Tolerance: similarity.Tolerance{Absolute: 1}, Weights: similarity.DefaultWeights()}

	var pairs []grouping.Pair
	for range 40 {
		pairs = append(pairs,
			grouping.Pair{A: 0, B: 1},
			grouping.Pair{A: 1, B: 2},
			grouping.Pair{A: 2, B: 3},
			grouping.Pair{A: 0, B: 2},
		)
	}

	want := ProcessChunk(pairs, f.ix, f.spectra, p)
	got, err := Run(context.Background(), pairs, f.ix, f.spectra, p, Options{Workers: 4, ChunkSize: 7})
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].A, got[i].A)
		assert.Equal(t, want[i].B, got[i].B)
		assert.Equal(t, want[i].Status, got[i].Status)
		if want[i].OK() {
			assert.Equal(t, want[i].Score, got[i].Score)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []grouping.Pair{{A: 0, B: 1}}, f.ix, f.spectra, DefaultParams(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsInvalidTolerance(t *testing.T) {
	f := newFixture(t)
	p := Params{Tolerance: similarity.Tolerance{PPM: -1}}

	_, err := Run(context.Background(), nil, f.ix, f.spectra, p, Options{})
	assert.ErrorIs(t, err, similarity.ErrInvalidTolerance)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "undefined", StatusUndefined.String())
	assert.Equal(t, "unavailable", StatusUnavailable.String())
	assert.Equal(t, "invalid", StatusInvalid.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestRunRejectsInvalidWeights(t *testing.T) {
	f := newFixture(t)
	p := Params{Tolerance: similarity.Tolerance{Absolute: 1}, Weights: similarity.Weights{Intensity: math.NaN()}}

	_, err := Run(context.Background(), nil, f.ix, f.spectra, p, Options{})
	assert.ErrorIs(t, err, similarity.ErrInvalidWeights)
}

func TestProcessChunkNeverReportsNaNAsOK(t *testing.T) {
	f := newFixture(t)
	f.spectra[0].Peaks = []core.Peak{{MZ: 100, Intensity: 0}, {MZ: 200, Intensity: 0.5}}
	p := Params{Tolerance: similarity.Tolerance{Absolute: 1}, Weights: similarity.Weights{Intensity: -0.5}}

	results := ProcessChunk([]grouping.Pair{{A: 0, B: 1}}, f.ix, f.spectra, p)
	require.Len(t, results, 1)
	assert.Equal(t, StatusUndefined, results[0].Status)
	assert.True(t, math.IsNaN(results[0].Score))
}
