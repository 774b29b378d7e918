package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pairsOut string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Group a library and score every candidate pair",
	Long: `Run grouping and scoring in one pass over a spectral library.

Examples:
  twinspace run --in library.msp --out scores.csv --mass-tol 10 --ppm --rt-tol 5 --frag-ppm 10

  # Keep the intermediate pairs table and store the run in SQLite
  twinspace run --config twinspace.toml --in library.msp --out scores.csv --pairs-out pairs.csv --db runs.sqlite`,
	RunE: runRun,
}

func init() {
	addLibraryFlags(runCmd)
	addGroupingFlags(runCmd)
	addScoringFlags(runCmd)
	addFilterFlags(runCmd)
	runCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output scores CSV (required)")
	runCmd.Flags().StringVar(&pairsOut, "pairs-out", "", "Also write the candidate pairs to this CSV")
	runCmd.Flags().StringVar(&dbFile, "db", "", "Also store the run in this SQLite database")
	runCmd.MarkFlagRequired("out")
}

func runRun(cmd *cobra.Command, args []string) error {
	fmt.Printf("Processing %s...\n", inputFile)

	ix, spectra, err := loadLibrary()
	if err != nil {
		return err
	}

	pairs, err := groupPairs(ix)
	if err != nil {
		return err
	}
	fmt.Printf("Precursors: %d\n", ix.Len())
	fmt.Printf("Candidate pairs: %d\n", len(pairs))

	if pairsOut != "" {
		if err := writePairs(pairsOut, pairs, ix); err != nil {
			return err
		}
	}

	return scorePairs(cmd.Context(), pairs, ix, spectra)
}
