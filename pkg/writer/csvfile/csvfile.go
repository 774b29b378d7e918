// Package csvfile reads and writes the tabular pair and result files.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/pipeline"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
)

// NotAvailable is written in place of a missing score.
const NotAvailable = "NA"

var (
	// PairHeader is the header of a grouping output file.
	PairHeader = []string{"id1", "id2", "peptide1", "peptide2", "mass1", "mass2", "retention1", "retention2"}

	// ResultHeader is the header of a similarity output file.
	ResultHeader = append(append([]string{}, PairHeader...), "similarity_score", "status")
)

// WritePairs writes candidate pairs with their precursor metadata.
func WritePairs(w io.Writer, pairs []grouping.Pair, ix *precursor.Index) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PairHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, pair := range pairs {
		a, _ := ix.Lookup(pair.A)
		b, _ := ix.Lookup(pair.B)
		row := []string{
			strconv.Itoa(pair.A), strconv.Itoa(pair.B),
			a.Name, b.Name,
			formatFloat(a.Mass), formatFloat(b.Mass),
			formatFloat(a.RetentionIndex), formatFloat(b.RetentionIndex),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write pair %d-%d: %w", pair.A, pair.B, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResults writes one row per similarity result. Scores of results
// without a score are written as NA.
func WriteResults(w io.Writer, results []pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range results {
		score := NotAvailable
		if r.OK() {
			score = formatFloat(r.Score)
		}
		row := []string{
			strconv.Itoa(r.A), strconv.Itoa(r.B),
			r.NameA, r.NameB,
			formatFloat(r.MassA), formatFloat(r.MassB),
			formatFloat(r.RetentionA), formatFloat(r.RetentionB),
			score, r.Status.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write result %d-%d: %w", r.A, r.B, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPairs reads the id1 and id2 columns of a pairs file. Other columns are
// ignored; pairs are returned in canonical (A < B) form.
func ReadPairs(r io.Reader) ([]grouping.Pair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty pairs file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col1, col2 := column(header, "id1", "index1"), column(header, "id2", "index2")
	if col1 < 0 || col2 < 0 {
		return nil, fmt.Errorf("pairs file needs id1 and id2 columns, got %v", header)
	}

	var pairs []grouping.Pair
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= max(col1, col2) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(col1, col2)+1, len(rec))
		}
		a, err := strconv.Atoi(strings.TrimSpace(rec[col1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id1 '%s': %w", line, rec[col1], err)
		}
		b, err := strconv.Atoi(strings.TrimSpace(rec[col2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id2 '%s': %w", line, rec[col2], err)
		}
		if a == b {
			return nil, fmt.Errorf("line %d: self pair %d", line, a)
		}
		if a > b {
			a, b = b, a
		}
		pairs = append(pairs, grouping.Pair{A: a, B: b})
	}
	return pairs, nil
}

func column(header []string, names ...string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
