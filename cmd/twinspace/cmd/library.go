package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader/msp"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader/sptxt"
)

// detectFormat returns the library format, from --from or the extension.
func detectFormat(path, format string) (string, error) {
	if format == "" {
		ext := strings.ToLower(filepath.Ext(reader.TrimCompression(path)))
		switch ext {
		case ".msp":
			format = "msp"
		case ".sptxt":
			format = "sptxt"
		default:
			return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
		}
	}

	format = strings.ToLower(format)
	if format != "msp" && format != "sptxt" {
		return "", fmt.Errorf("invalid input format '%s', must be msp or sptxt", format)
	}
	return format, nil
}

// massTable returns the default mass table extended with --mods.
func massTable() (*core.MassTable, error) {
	table := core.DefaultMassTable()
	if modsCSV == "" {
		return table, nil
	}

	f, err := os.Open(modsCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to open modifications file: %w", err)
	}
	defer f.Close()

	mods, err := core.LoadModificationsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", modsCSV, err)
	}
	log.Debug("loaded custom modifications", "file", modsCSV, "count", len(mods))
	return table.WithModifications(mods), nil
}

// readLibrary reads every well-formed spectrum of the input library.
func readLibrary() ([]*core.Spectrum, error) {
	format, err := detectFormat(inputFile, inputFormat)
	if err != nil {
		return nil, err
	}
	table, err := massTable()
	if err != nil {
		return nil, err
	}

	f, err := reader.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var (
		spectra  []*core.Spectrum
		rejected []error
	)
	switch format {
	case "msp":
		r := msp.NewReader(f, table)
		spectra, err = r.ReadAll()
		rejected = r.Rejected()
	case "sptxt":
		r := sptxt.NewReader(f, table)
		spectra, err = r.ReadAll()
		rejected = r.Rejected()
	}
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	flog := log.WithFile(inputFile)
	flog.LogRejected(rejected)
	flog.Info("read library", "format", format, "spectra", len(spectra), "rejected", len(rejected))
	return spectra, nil
}

// loadLibrary reads and filters the input library and indexes its
// precursors. Entries the filter empties or that lack iRT are left out of
// the index.
func loadLibrary() (*precursor.Index, core.SpectrumSet, error) {
	spectra, err := readLibrary()
	if err != nil {
		return nil, nil, err
	}

	fc := cfg.FilterConfig()
	if fc.Enabled() {
		var emptied []int
		spectra, emptied = fc.ApplyAll(spectra)
		log.LogSkipped("no peaks left after filtering", emptied)
	}

	ix, skipped, err := precursor.FromSpectra(spectra)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index precursors: %w", err)
	}
	log.LogSkipped("missing iRT", skipped)

	return ix, core.NewSpectrumSet(spectra), nil
}
