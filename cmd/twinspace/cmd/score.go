package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/pipeline"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
	"github.com/ChrisMcGann/TwinSpace/pkg/writer/csvfile"
	"github.com/ChrisMcGann/TwinSpace/pkg/writer/sqlite"
)

var (
	pairsFile string
	dbFile    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the spectral similarity of candidate pairs",
	Long: `Score every pair of a pairs CSV (as written by 'group') with the
spectral angle similarity of their library spectra.

Examples:
  # 10 ppm fragment tolerance, square-root intensity weights
  twinspace score --in library.msp --pairs pairs.csv --out scores.csv

  # Absolute fragment tolerance, results also stored in SQLite
  twinspace score --in library.msp --pairs pairs.csv --out scores.csv --frag-tol 0.02 --frag-ppm 0 --db runs.sqlite`,
	RunE: runScore,
}

func init() {
	addLibraryFlags(scoreCmd)
	addScoringFlags(scoreCmd)
	addFilterFlags(scoreCmd)
	scoreCmd.Flags().StringVarP(&pairsFile, "pairs", "p", "", "Input pairs CSV (required)")
	scoreCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output scores CSV (required)")
	scoreCmd.Flags().StringVar(&dbFile, "db", "", "Also store the run in this SQLite database")
	scoreCmd.MarkFlagRequired("pairs")
	scoreCmd.MarkFlagRequired("out")
}

func runScore(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scoring %s against %s...\n", pairsFile, inputFile)

	ix, spectra, err := loadLibrary()
	if err != nil {
		return err
	}

	f, err := os.Open(pairsFile)
	if err != nil {
		return fmt.Errorf("failed to open pairs file: %w", err)
	}
	pairs, err := csvfile.ReadPairs(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read pairs: %w", err)
	}

	return scorePairs(cmd.Context(), pairs, ix, spectra)
}

// scorePairs runs the similarity pipeline and writes the results.
func scorePairs(ctx context.Context, pairs []grouping.Pair, ix *precursor.Index, spectra core.SpectrumSet) error {
	run := sqlite.NewRun()
	rlog := log.WithRun(run.ID.String())

	opts := cfg.PipelineOptions()
	opts.Logger = rlog.Logger

	results, err := pipeline.Run(ctx, pairs, ix, spectra, cfg.PipelineParams(), opts)
	if err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := csvfile.WriteResults(out, results); err != nil {
		out.Close()
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if dbFile != "" {
		if err := storeRun(run, ix, results); err != nil {
			return err
		}
		rlog.Info("stored run", "db", dbFile)
	}

	scored := 0
	for _, r := range results {
		if r.OK() {
			scored++
		}
	}

	fmt.Printf("\nScoring complete!\n")
	fmt.Printf("Pairs: %d\n", len(results))
	if missing := len(results) - scored; missing > 0 {
		fmt.Printf("Without score: %d pairs (see status column)\n", missing)
	}
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}

func storeRun(run sqlite.Run, ix *precursor.Index, results []pipeline.Result) error {
	run.Library = inputFile
	run.MassTolerance = cfg.Grouping.MassTolerance
	run.RetentionTolerance = cfg.Grouping.RetentionTolerance
	run.UsePPM = cfg.Grouping.UsePPM
	run.FragmentAbsolute = cfg.Similarity.FragmentTolerance
	run.FragmentPPM = cfg.Similarity.FragmentTolerancePPM
	run.WeightMZ = cfg.Similarity.MZWeight
	run.WeightIntensity = cfg.Similarity.IntensityWeight
	run.PairCount = len(results)

	w, err := sqlite.NewWriter(dbFile, run)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	if err := w.WritePrecursors(ix); err != nil {
		w.Abort()
		return err
	}
	if err := w.WriteResults(results); err != nil {
		w.Abort()
		return err
	}
	if err := w.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	return nil
}
