package core

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestPrecursorMZ(t *testing.T) {
	table := DefaultMassTable()

	tests := []struct {
		name      string
		sequence  string
		charge    int
		wantMZ    float64
		tolerance float64
	}{
		{"simple peptide charge 1", "AAA", 1, 232.129, 0.01},
		{"simple peptide charge 2", "AAA", 2, 116.569, 0.01},
		{"carbamidomethyl by accession", "C[UNIMOD:4]AA", 1, 321.122, 0.01},
		{"n-terminal TMT", "[UNIMOD:737]-AAA", 1, 461.292, 0.01},
		{"literal delta", "M[+15.994915]K", 2, 147.578, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.PrecursorMZ(tt.sequence, tt.charge)
			if err != nil {
				t.Fatalf("PrecursorMZ() error = %v", err)
			}
			if math.Abs(got-tt.wantMZ) > tt.tolerance {
				t.Errorf("PrecursorMZ() = %.3f, want %.3f (within %.3f)", got, tt.wantMZ, tt.tolerance)
			}
		})
	}
}

func TestNeutralMass(t *testing.T) {
	table := DefaultMassTable()

	got, err := table.NeutralMass("PEPTIDE")
	if err != nil {
		t.Fatalf("NeutralMass() error = %v", err)
	}
	if math.Abs(got-799.3600) > 0.001 {
		t.Errorf("NeutralMass(PEPTIDE) = %.4f, want 799.3600", got)
	}

	oxidized, err := table.NeutralMass("PEPTM[Oxidation]IDE")
	if err != nil {
		t.Fatalf("NeutralMass() error = %v", err)
	}
	plain, _ := table.NeutralMass("PEPTMIDE")
	if math.Abs(oxidized-plain-15.994915) > 1e-9 {
		t.Errorf("oxidation delta = %.6f, want 15.994915", oxidized-plain)
	}
}

func TestUnrecognizedToken(t *testing.T) {
	table := DefaultMassTable()

	tests := []struct {
		name     string
		sequence string
		token    string
	}{
		{"unknown residue", "PEPXIDE", "X"},
		{"unknown modification", "PEPC[UNIMOD:99999]", "UNIMOD:99999"},
		{"lowercase residue", "pep", "p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mass, err := table.NeutralMass(tt.sequence)
			if !errors.Is(err, ErrUnrecognizedToken) {
				t.Fatalf("NeutralMass() error = %v, want ErrUnrecognizedToken", err)
			}
			var tokErr *UnrecognizedTokenError
			if !errors.As(err, &tokErr) || tokErr.Token != tt.token {
				t.Errorf("token = %v, want %q", tokErr, tt.token)
			}
			if mass != 0 {
				t.Errorf("mass = %v on failure, want 0", mass)
			}
		})
	}
}

func TestWithModifications(t *testing.T) {
	base := DefaultMassTable()
	custom := base.WithModifications(map[string]float64{"Heavy": 8.014199})

	if _, ok := base.ModificationMass("Heavy"); ok {
		t.Error("base table must not see modifications added to a derived table")
	}
	if mass, ok := custom.ModificationMass("Heavy"); !ok || mass != 8.014199 {
		t.Errorf("ModificationMass(Heavy) = %v, %v", mass, ok)
	}
	if _, ok := custom.ModificationMass("unimod:35"); !ok {
		t.Error("accession lookup should be case-insensitive")
	}
}

func TestLoadModificationsCSV(t *testing.T) {
	input := "mod,massshift,aa\nHeavyK,8.014199,K\n\nHeavyR,10.008269,R\n"

	mods, err := LoadModificationsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadModificationsCSV() error = %v", err)
	}
	if len(mods) != 2 || mods["HeavyR"] != 10.008269 {
		t.Errorf("unexpected mods: %v", mods)
	}

	if _, err := LoadModificationsCSV(strings.NewReader("mod,mass\nBad,abc\n")); err == nil {
		t.Error("expected error for invalid mass")
	}
}
