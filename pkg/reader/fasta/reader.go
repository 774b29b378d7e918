// Package fasta provides a streaming reader for protein FASTA files
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errMissingHeader = errors.New("sequence data before first '>' header")

// Record is one protein entry.
type Record struct {
	ID          string // first word of the header
	Description string // rest of the header
	Sequence    string // upper case, whitespace removed
}

// Accession returns the accession of a UniProt style ID ("sp|P12345|NAME"),
// or the ID itself.
func (r Record) Accession() string {
	parts := strings.Split(r.ID, "|")
	if len(parts) >= 3 {
		return parts[1]
	}
	return r.ID
}

// Reader provides streaming access to FASTA files
type Reader struct {
	scanner *bufio.Scanner
	line    int
	header  string
	pending bool
	current Record
	err     error
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner}
}

// Next advances to the next record. Returns false at EOF or on error.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	var seq strings.Builder
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if r.pending {
				r.emit(seq.String())
				r.header = line[1:]
				return true
			}
			r.header = line[1:]
			r.pending = true
			continue
		}

		if !r.pending {
			r.err = fmt.Errorf("line %d: %w", r.line, errMissingHeader)
			return false
		}
		seq.WriteString(strings.ToUpper(strings.Join(strings.Fields(line), "")))
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("error reading FASTA: %w", err)
		return false
	}

	if r.pending {
		r.emit(seq.String())
		r.pending = false
		return true
	}
	return false
}

func (r *Reader) emit(seq string) {
	id, desc, _ := strings.Cut(strings.TrimSpace(r.header), " ")
	r.current = Record{ID: id, Description: strings.TrimSpace(desc), Sequence: seq}
}

// Record returns the current record
func (r *Reader) Record() Record {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for r.Next() {
		records = append(records, r.Record())
	}
	return records, r.Err()
}
