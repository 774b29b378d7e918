package core

import (
	"math"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Sequence:      "PEPTIDE",
				Charge:        2,
				PrecursorMZ:   400.5,
				RetentionTime: floatPtr(35.2),
				Peaks: []Peak{
					{MZ: 100.0, Intensity: 1000.0},
					{MZ: 200.0, Intensity: 2000.0},
				},
			},
			wantErr: false,
		},
		{
			name: "missing sequence",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "zero charge",
			spec: &Spectrum{
				Sequence:    "PEPTIDE",
				Charge:      0,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "missing precursor",
			spec: &Spectrum{
				Sequence: "PEPTIDE",
				Charge:   2,
				Peaks:    []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "no peaks",
			spec: &Spectrum{
				Sequence:    "PEPTIDE",
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{},
			},
			wantErr: true,
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Sequence:    "PEPTIDE",
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{MZ: 200.0, Intensity: 2000.0},
					{MZ: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Sequence:    "PEPTIDE",
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{MZ: math.NaN(), Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "infinite iRT",
			spec: &Spectrum{
				Sequence:      "PEPTIDE",
				Charge:        2,
				PrecursorMZ:   400.5,
				RetentionTime: floatPtr(math.Inf(1)),
				Peaks:         []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300.0, Intensity: 100.0},
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.0},
			{MZ: 100.0, Intensity: 50.0},
		},
	}

	spec.SortPeaks()

	expected := []Peak{
		{MZ: 100.0, Intensity: 200.0},
		{MZ: 100.0, Intensity: 50.0},
		{MZ: 200.0, Intensity: 150.0},
		{MZ: 300.0, Intensity: 100.0},
	}
	for i, peak := range spec.Peaks {
		if peak != expected[i] {
			t.Errorf("Peak %d: expected %+v, got %+v", i, expected[i], peak)
		}
	}
}

func TestSpectrumName(t *testing.T) {
	spec := &Spectrum{
		Sequence: "PEPTIDE",
		Charge:   2,
	}

	if name := spec.Name(); name != "PEPTIDE/2" {
		t.Errorf("Expected name PEPTIDE/2, got %s", name)
	}
}

func TestSpectrumSet(t *testing.T) {
	set := NewSpectrumSet([]*Spectrum{
		{ID: 3, Sequence: "AAA"},
		{ID: 7, Sequence: "CCC"},
	})

	spec, ok := set.Spectrum(7)
	if !ok || spec.Sequence != "CCC" {
		t.Fatalf("Spectrum(7) = %v, %v", spec, ok)
	}
	if _, ok := set.Spectrum(4); ok {
		t.Error("Spectrum(4) should be missing")
	}
}
