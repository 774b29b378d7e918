// Package reader holds what the library readers share: splitting a text
// library into records and parsing peak lines.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
)

// maxLineSize bounds a single library line.
const maxLineSize = 1 << 20

// Block is one record of a text library with the line number it started on.
type Block struct {
	Line  int
	Lines []string
}

// BlockScanner splits a library into records. A record ends at a blank line,
// at EOF, or where the next record starts.
type BlockScanner struct {
	scanner *bufio.Scanner
	isStart func(line string) bool
	lineNum int
	pending string
	held    bool
}

// NewBlockScanner returns a scanner that starts a new record on every line
// for which isStart returns true.
func NewBlockScanner(r io.Reader, isStart func(line string) bool) *BlockScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &BlockScanner{scanner: scanner, isStart: isStart}
}

// Next returns the next non-empty record, or io.EOF.
func (s *BlockScanner) Next() (Block, error) {
	var block Block

	for {
		var line string
		if s.held {
			line, s.held = s.pending, false
		} else {
			if !s.scanner.Scan() {
				break
			}
			s.lineNum++
			line = strings.TrimSpace(s.scanner.Text())
		}

		if line == "" {
			if len(block.Lines) > 0 {
				return block, nil
			}
			continue
		}
		if len(block.Lines) > 0 && s.isStart(line) {
			s.pending, s.held = line, true
			return block, nil
		}
		if len(block.Lines) == 0 {
			block.Line = s.lineNum
		}
		block.Lines = append(block.Lines, line)
	}

	if err := s.scanner.Err(); err != nil {
		return Block{}, err
	}
	if len(block.Lines) > 0 {
		return block, nil
	}
	return Block{}, io.EOF
}

// RecordError reports a malformed record. Readers skip such records and
// keep going.
type RecordError struct {
	Line int
	Name string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("record %q at line %d: %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("record at line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParsePeak parses "mz<ws>intensity[<ws>annotation...]". Quotes and
// "/ppm" suffixes are stripped from the annotation.
func ParsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format %q, expected at least 2 fields", line)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{MZ: mz, Intensity: intensity}

	if len(fields) >= 3 {
		annotation := strings.Trim(fields[2], "\"")
		if idx := strings.Index(annotation, "/"); idx > 0 {
			annotation = annotation[:idx]
		}
		peak.Annotation = annotation
	}

	return peak, nil
}

// ParseName splits "SEQUENCE/CHARGE".
func ParseName(name string) (string, int, error) {
	idx := strings.LastIndex(name, "/")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}
	charge, err := strconv.Atoi(strings.TrimSpace(name[idx+1:]))
	if err != nil {
		return "", 0, fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	return strings.TrimSpace(name[:idx]), charge, nil
}

// ParseFloatField parses a header value such as "MW: 500.12".
func ParseFloatField(field, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value '%s': %w", field, value, err)
	}
	return v, nil
}
