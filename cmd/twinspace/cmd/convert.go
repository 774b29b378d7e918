package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/writer/msp"
)

var recalcMZ bool

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert and filter a spectral library to MSP",
	Long: `Convert spectral libraries in MSP or SPTXT format to a filtered MSP
library that 'group', 'score' and 'run' read.

Examples:
  # Convert SPTXT with default settings
  twinspace convert --in library.sptxt --out library.msp

  # Keep the 12 most intense b and y ions above 1% of the base peak
  twinspace convert --in library.msp --out filtered.msp --top-n 12 --cutoff 1 --ion-types b,y`,
	RunE: runConvert,
}

func init() {
	addLibraryFlags(convertCmd)
	addFilterFlags(convertCmd)
	convertCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output MSP library (required)")
	convertCmd.Flags().BoolVar(&recalcMZ, "recalc-mz", false, "Recalculate precursor m/z from sequence and modifications")
	convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	fmt.Printf("Converting %s to %s...\n", inputFile, outputFile)

	fc := cfg.FilterConfig()
	if fc.TopN > 0 {
		fmt.Printf("Top N filter: %d\n", fc.TopN)
	}
	if fc.IntensityCutoff > 0 {
		fmt.Printf("Intensity cutoff: %.1f%%\n", fc.IntensityCutoff)
	}
	if len(fc.IonTypes) > 0 {
		fmt.Printf("Ion types: %v\n", fc.IonTypes)
	}

	spectra, err := readLibrary()
	if err != nil {
		return err
	}

	table, err := massTable()
	if err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := msp.NewWriter(out)
	skipped := 0

	for _, spec := range spectra {
		if recalcMZ {
			mz, err := precursorMZ(table, spec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cannot recalculate m/z of %s: %v\n", spec.Name(), err)
				skipped++
				continue
			}
			spec.PrecursorMZ = mz
		}

		fc.Apply(spec)

		if err := spec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid spectrum %s: %v\n", spec.Name(), err)
			skipped++
			continue
		}

		if err := writer.WriteSpectrum(spec); err != nil {
			return fmt.Errorf("failed to write spectrum %s: %w", spec.Name(), err)
		}

		if writer.Count()%1000 == 0 {
			fmt.Printf("Processed %d spectra...\n", writer.Count())
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	fmt.Printf("\nConversion complete!\n")
	fmt.Printf("Processed: %d spectra\n", writer.Count())
	if skipped > 0 {
		fmt.Printf("Skipped: %d spectra (validation errors)\n", skipped)
	}
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}

// precursorMZ computes the m/z of spec from its bare sequence and its
// modification deltas.
func precursorMZ(table *core.MassTable, spec *core.Spectrum) (float64, error) {
	mass, err := table.NeutralMass(spec.Sequence)
	if err != nil {
		return 0, err
	}
	for _, mod := range spec.Modifications {
		mass += mod.Mass
	}
	z := float64(spec.Charge)
	return (mass + z*core.ProtonMass) / z, nil
}
