package msp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader"
)

const library = `Name: PEPTIDEK/2
MW: 472.723
Collision_energy: 30
iRT: 35.5
Num peaks: 3
300.2	0.5
147.11	1.0
401.9	0.25

Name: MALFORMEDK/2
Collision_energy: 30
Num peaks: 1
100.0	1.0

Name: LESLIEK/2
Comment: Parent=416.7457 Collision_energy=28 Mods=1/3,L,Oxidation iRT=61.01
Num peaks: 2
147.11	1.0
260.19	0.4
Name: NOIRTK/3
MW: 300.5
Num peaks: 1
175.119	0.8
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)

	spectra, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, spectra, 3)

	first := spectra[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, "PEPTIDEK", first.Sequence)
	assert.Equal(t, 2, first.Charge)
	assert.Equal(t, 472.723, first.PrecursorMZ)
	require.NotNil(t, first.RetentionTime)
	assert.Equal(t, 35.5, *first.RetentionTime)
	require.NotNil(t, first.CollisionEnergy)
	assert.Equal(t, 30.0, *first.CollisionEnergy)
	assert.Equal(t, []float64{147.11, 300.2, 401.9}, mzs(first.Peaks), "peaks are sorted on read")

	comment := spectra[1]
	assert.Equal(t, 2, comment.ID, "IDs count rejected records too")
	assert.Equal(t, 416.7457, comment.PrecursorMZ)
	require.NotNil(t, comment.RetentionTime)
	assert.Equal(t, 61.01, *comment.RetentionTime)
	require.Len(t, comment.Modifications, 1)
	assert.Equal(t, 15.994915, comment.Modifications[0].Mass)

	noIRT := spectra[2]
	assert.Equal(t, 3, noIRT.ID)
	assert.Nil(t, noIRT.RetentionTime)

	rejected := r.Rejected()
	require.Len(t, rejected, 1)
	var recErr *reader.RecordError
	require.ErrorAs(t, rejected[0], &recErr)
	assert.Equal(t, "MALFORMEDK/2", recErr.Name)
	assert.ErrorIs(t, recErr, errMissingPrecursor)
}

func TestReaderRejectsBadPeaks(t *testing.T) {
	input := "Name: AAK/1\nMW: 300\nNum peaks: 2\n100\t1\nnot-a-peak\n\nName: CCK/1\nMW: 350\nNum peaks: 1\n120\t1\n"

	r := NewReader(strings.NewReader(input), core.DefaultMassTable())
	spectra, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, spectra, 1)
	assert.Equal(t, "CCK", spectra[0].Sequence)
	assert.Equal(t, 1, spectra[0].ID)
	assert.Len(t, r.Rejected(), 1)
}

func TestReaderEmpty(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"), nil)
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
	assert.Nil(t, r.Spectrum())
}

func mzs(peaks []core.Peak) []float64 {
	out := make([]float64, len(peaks))
	for i, p := range peaks {
		out[i] = p.MZ
	}
	return out
}
