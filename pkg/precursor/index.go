// Package precursor normalizes per-peptide precursor records into an
// id-ordered index that the grouping engine can query.
package precursor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

// ErrDuplicateID is returned when two records share an ID.
var ErrDuplicateID = errors.New("duplicate precursor id")

// Record is the precursor of one library entry.
type Record struct {
	ID             int
	Name           string // "PEPTIDE/charge"
	Mass           float64
	RetentionIndex float64
}

// Index holds records sorted by ID. It is read-only once built.
type Index struct {
	records []Record
	byID    map[int]int
}

// New validates and indexes records. The input slice is not modified.
func New(records []Record) (*Index, error) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ix := &Index{
		records: sorted,
		byID:    make(map[int]int, len(sorted)),
	}
	for i, rec := range sorted {
		if !finite(rec.Mass) {
			return nil, fmt.Errorf("precursor %d (%s): mass %v is not finite", rec.ID, rec.Name, rec.Mass)
		}
		if !finite(rec.RetentionIndex) {
			return nil, fmt.Errorf("precursor %d (%s): retention index %v is not finite", rec.ID, rec.Name, rec.RetentionIndex)
		}
		if _, dup := ix.byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		ix.byID[rec.ID] = i
	}
	return ix, nil
}

// FromSpectra builds an index from library spectra. Entries without a
// retention index cannot be grouped; their IDs are returned in skipped.
func FromSpectra(spectra []*core.Spectrum) (ix *Index, skipped []int, err error) {
	records := make([]Record, 0, len(spectra))
	for _, spec := range spectra {
		if spec.RetentionTime == nil {
			skipped = append(skipped, spec.ID)
			continue
		}
		records = append(records, Record{
			ID:             spec.ID,
			Name:           spec.Name(),
			Mass:           spec.PrecursorMZ,
			RetentionIndex: *spec.RetentionTime,
		})
	}
	ix, err = New(records)
	if err != nil {
		return nil, nil, err
	}
	return ix, skipped, nil
}

// Len returns the number of records.
func (ix *Index) Len() int { return len(ix.records) }

// At returns the i-th record in ID order.
func (ix *Index) At(i int) Record { return ix.records[i] }

// Records returns all records in ID order. Callers must not modify the slice.
func (ix *Index) Records() []Record { return ix.records }

// Lookup returns the record with the given ID.
func (ix *Index) Lookup(id int) (Record, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Record{}, false
	}
	return ix.records[i], true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
