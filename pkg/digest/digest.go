// Package digest performs in-silico protein digestion.
package digest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEnzyme is returned by ParseEnzyme for unsupported names.
var ErrUnknownEnzyme = errors.New("unknown enzyme")

// Enzyme selects the cleavage rule.
type Enzyme int

const (
	// Trypsin cleaves after K, and after R unless followed by P.
	Trypsin Enzyme = iota
	// Chymotrypsin cleaves after F, W, Y and L.
	Chymotrypsin
	// NonSpecific yields every substring within the length limits.
	NonSpecific
)

// ParseEnzyme converts a name to an Enzyme.
func ParseEnzyme(name string) (Enzyme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trypsin":
		return Trypsin, nil
	case "chymotrypsin":
		return Chymotrypsin, nil
	case "nonspecific", "non-specific", "none":
		return NonSpecific, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEnzyme, name)
}

func (e Enzyme) String() string {
	switch e {
	case Trypsin:
		return "trypsin"
	case Chymotrypsin:
		return "chymotrypsin"
	case NonSpecific:
		return "nonspecific"
	default:
		return "Enzyme(" + strconv.Itoa(int(e)) + ")"
	}
}

// cleavesAfter reports whether the bond between prev and next is cut.
func (e Enzyme) cleavesAfter(prev, next byte) bool {
	switch e {
	case Trypsin:
		return prev == 'K' || (prev == 'R' && next != 'P')
	case Chymotrypsin:
		return prev == 'F' || prev == 'W' || prev == 'Y' || prev == 'L'
	}
	return false
}

// Cleave splits sequence into fully cleaved peptides, in order. The last
// residue never triggers a cut. NonSpecific returns the sequence unchanged.
func (e Enzyme) Cleave(sequence string) []string {
	if sequence == "" {
		return nil
	}

	var peptides []string
	start := 0
	for i := 1; i < len(sequence); i++ {
		if e.cleavesAfter(sequence[i-1], sequence[i]) {
			peptides = append(peptides, sequence[start:i])
			start = i
		}
	}
	return append(peptides, sequence[start:])
}

// Options limits the peptides returned by Digest.
type Options struct {
	MinLength int // 0 = no minimum
	MaxLength int // 0 = no maximum
	Unique    bool
}

// Validate checks the length limits.
func (o Options) Validate(e Enzyme) error {
	if o.MinLength < 0 || o.MaxLength < 0 {
		return fmt.Errorf("peptide length limits must be non-negative")
	}
	if o.MaxLength > 0 && o.MinLength > o.MaxLength {
		return fmt.Errorf("min length %d exceeds max length %d", o.MinLength, o.MaxLength)
	}
	if e == NonSpecific && (o.MinLength == 0 || o.MaxLength == 0) {
		return fmt.Errorf("%s digestion needs both length limits", e)
	}
	return nil
}

func (o Options) accepts(n int) bool {
	return n >= o.MinLength && (o.MaxLength == 0 || n <= o.MaxLength)
}

// Peptide is one digestion product.
type Peptide struct {
	Protein  string
	Sequence string
	Start    int // 0-based offset in the protein
}

// Digest cleaves sequence and applies the length limits. With Unique, a
// peptide already in seen is dropped; seen may be shared across proteins.
func Digest(protein, sequence string, e Enzyme, opts Options, seen map[string]struct{}) []Peptide {
	var out []Peptide
	keep := func(seq string, start int) {
		if !opts.accepts(len(seq)) {
			return
		}
		if opts.Unique && seen != nil {
			if _, dup := seen[seq]; dup {
				return
			}
			seen[seq] = struct{}{}
		}
		out = append(out, Peptide{Protein: protein, Sequence: seq, Start: start})
	}

	if e == NonSpecific {
		for n := opts.MinLength; n <= opts.MaxLength; n++ {
			for i := 0; i+n <= len(sequence); i++ {
				keep(sequence[i:i+n], i)
			}
		}
		return out
	}

	start := 0
	for _, seq := range e.Cleave(sequence) {
		keep(seq, start)
		start += len(seq)
	}
	return out
}
