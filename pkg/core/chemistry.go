// Package core provides chemistry calculations for peptide mass calculations
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	// MassWater is added once per peptide for the termini.
	MassWater = 2*MassH + MassO
)

// ErrUnrecognizedToken is matched by every UnrecognizedTokenError.
var ErrUnrecognizedToken = errors.New("unrecognized token")

// UnrecognizedTokenError reports a residue or modification that the mass
// table does not know. A failed computation never yields a zero mass.
type UnrecognizedTokenError struct {
	Sequence string
	Token    string
	Position int
}

func (e *UnrecognizedTokenError) Error() string {
	return fmt.Sprintf("unrecognized token %q at position %d in %q", e.Token, e.Position, e.Sequence)
}

func (e *UnrecognizedTokenError) Is(target error) bool {
	return target == ErrUnrecognizedToken
}

// AminoAcidComposition stores elemental composition
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// Mass returns the monoisotopic mass of the composition.
func (c AminoAcidComposition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS
}

// residueCompositions maps amino acid one-letter codes to residue composition
var residueCompositions = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
}

// MassTable holds residue and modification masses. It is never mutated after
// construction; derive a new table with WithModifications instead.
type MassTable struct {
	residues map[rune]float64
	mods     map[string]float64
}

// DefaultMassTable returns the standard residues plus the common
// modifications, addressable both by name and by UNIMOD accession.
func DefaultMassTable() *MassTable {
	t := &MassTable{
		residues: make(map[rune]float64, len(residueCompositions)),
		mods:     make(map[string]float64, len(defaultModifications)),
	}
	for aa, comp := range residueCompositions {
		t.residues[aa] = comp.Mass()
	}
	for name, mass := range defaultModifications {
		t.mods[name] = mass
	}
	return t
}

// WithModifications returns a copy of t extended (or overridden) with mods.
func (t *MassTable) WithModifications(mods map[string]float64) *MassTable {
	out := &MassTable{
		residues: t.residues,
		mods:     make(map[string]float64, len(t.mods)+len(mods)),
	}
	for name, mass := range t.mods {
		out.mods[name] = mass
	}
	for name, mass := range mods {
		out.mods[name] = mass
	}
	return out
}

// ResidueMass returns the residue mass of an amino acid.
func (t *MassTable) ResidueMass(aa rune) (float64, bool) {
	mass, ok := t.residues[aa]
	return mass, ok
}

// ModificationMass resolves a modification by name ("Oxidation"), by
// accession ("UNIMOD:35") or as a literal signed delta ("+15.9949").
func (t *MassTable) ModificationMass(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if mass, ok := t.mods[token]; ok {
		return mass, true
	}
	if mass, ok := t.mods[strings.ToUpper(token)]; ok {
		return mass, true
	}
	if token != "" && (token[0] == '+' || token[0] == '-') {
		if mass, err := strconv.ParseFloat(token, 64); err == nil {
			return mass, true
		}
	}
	return 0, false
}

// ParseSequence splits a modified sequence such as
// "[UNIMOD:737]-PEPTM[UNIMOD:35]IDE" into the bare sequence and its
// modifications. N-terminal modifications get Position -1.
func (t *MassTable) ParseSequence(sequence string) (string, []Modification, error) {
	var bare strings.Builder
	var mods []Modification

	residues := 0
	for i := 0; i < len(sequence); {
		ch := sequence[i]
		switch {
		case ch == '[':
			end := strings.IndexByte(sequence[i:], ']')
			if end < 0 {
				return "", nil, &UnrecognizedTokenError{Sequence: sequence, Token: sequence[i:], Position: i}
			}
			token := sequence[i+1 : i+end]
			mass, ok := t.ModificationMass(token)
			if !ok {
				return "", nil, &UnrecognizedTokenError{Sequence: sequence, Token: token, Position: i}
			}
			mods = append(mods, Modification{Mass: mass, Position: residues - 1, Name: token})
			i += end + 1
		case ch == '-':
			// terminal separator: "[mod]-SEQ" or "SEQ-[mod]"
			i++
		default:
			if _, ok := t.residues[rune(ch)]; !ok {
				return "", nil, &UnrecognizedTokenError{Sequence: sequence, Token: string(ch), Position: i}
			}
			bare.WriteByte(ch)
			residues++
			i++
		}
	}

	if residues == 0 {
		return "", nil, fmt.Errorf("sequence %q contains no residues", sequence)
	}
	return bare.String(), mods, nil
}

// NeutralMass computes the neutral monoisotopic mass of a possibly modified
// peptide sequence.
func (t *MassTable) NeutralMass(sequence string) (float64, error) {
	bare, mods, err := t.ParseSequence(sequence)
	if err != nil {
		return 0, err
	}

	mass := MassWater
	for _, aa := range bare {
		mass += t.residues[aa]
	}
	for _, mod := range mods {
		mass += mod.Mass
	}
	return mass, nil
}

// PrecursorMZ returns the m/z of the peptide at the given charge state.
func (t *MassTable) PrecursorMZ(sequence string, charge int) (float64, error) {
	if charge <= 0 {
		return 0, fmt.Errorf("charge must be positive, got %d", charge)
	}
	mass, err := t.NeutralMass(sequence)
	if err != nil {
		return 0, err
	}
	return (mass + float64(charge)*ProtonMass) / float64(charge), nil
}
