// Package core provides modification parsing and management
package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// defaultModifications holds common unimod entries by name and by accession.
var defaultModifications = map[string]float64{
	"Acetyl":          42.010565,
	"UNIMOD:1":        42.010565,
	"Amidated":        -0.984016,
	"UNIMOD:2":        -0.984016,
	"Carbamidomethyl": 57.021464,
	"UNIMOD:4":        57.021464,
	"Carbamyl":        43.005814,
	"UNIMOD:5":        43.005814,
	"Carboxymethyl":   58.005479,
	"UNIMOD:6":        58.005479,
	"Deamidated":      0.984016,
	"UNIMOD:7":        0.984016,
	"Phospho":         79.966331,
	"UNIMOD:21":       79.966331,
	"Gln->pyro-Glu":   -17.026549,
	"UNIMOD:28":       -17.026549,
	"Glu->pyro-Glu":   -18.010565,
	"UNIMOD:27":       -18.010565,
	"Methyl":          14.01565,
	"UNIMOD:34":       14.01565,
	"Oxidation":       15.994915,
	"UNIMOD:35":       15.994915,
	"Dimethyl":        28.0313,
	"UNIMOD:36":       28.0313,
	"Trimethyl":       42.04695,
	"UNIMOD:37":       42.04695,
	"HexNAc":          203.079373,
	"UNIMOD:43":       203.079373,
	"GlyGly":          114.042927,
	"UNIMOD:121":      114.042927,
	"iTRAQ4plex":      144.102063,
	"UNIMOD:214":      144.102063,
	"iTRAQ8plex":      304.205360,
	"UNIMOD:730":      304.205360,
	"TMT6plex":        229.162932,
	"TMT10plex":       229.162932,
	"TMT11plex":       229.162932,
	"TMT":             229.162932,
	"UNIMOD:737":      229.162932,
	"TMTPro":          304.207146,
	"TMT_Pro":         304.207146,
	"TMT16plex":       304.207146,
	"UNIMOD:2016":     304.207146,
}

// LoadModificationsCSV reads custom modifications (format: mod,massshift[,aa])
// with a header line. The result is meant for MassTable.WithModifications.
func LoadModificationsCSV(r io.Reader) (map[string]float64, error) {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	mods := make(map[string]float64)
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		mods[name] = mass
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return mods, nil
}
