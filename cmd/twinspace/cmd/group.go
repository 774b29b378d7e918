package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
	"github.com/ChrisMcGann/TwinSpace/pkg/writer/csvfile"
)

var outputFile string

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Find precursor pairs within mass and retention tolerance",
	Long: `Find every pair of library entries whose precursor masses and retention
indices are both within tolerance, and write them as a CSV table.

Examples:
  # 10 ppm and 5 iRT units
  twinspace group --in library.msp --out pairs.csv --mass-tol 10 --ppm --rt-tol 5

  # Absolute mass tolerance with the pairwise scan
  twinspace group --in library.sptxt --out pairs.csv --mass-tol 0.02 --ppm=false --naive`,
	RunE: runGroup,
}

func init() {
	addLibraryFlags(groupCmd)
	addGroupingFlags(groupCmd)
	groupCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output pairs CSV (required)")
	groupCmd.MarkFlagRequired("out")
}

func runGroup(cmd *cobra.Command, args []string) error {
	fmt.Printf("Grouping %s...\n", inputFile)

	ix, _, err := loadLibrary()
	if err != nil {
		return err
	}

	pairs, err := groupPairs(ix)
	if err != nil {
		return err
	}

	if err := writePairs(outputFile, pairs, ix); err != nil {
		return err
	}

	fmt.Printf("\nGrouping complete!\n")
	fmt.Printf("Precursors: %d\n", ix.Len())
	fmt.Printf("Pairs: %d\n", len(pairs))
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}

// groupPairs runs the configured grouping engine.
func groupPairs(ix *precursor.Index) ([]grouping.Pair, error) {
	p := cfg.GroupingParams()
	group := grouping.Group
	engine := "kdtree"
	if cfg.Grouping.Naive {
		group = grouping.GroupNaive
		engine = "naive"
	}

	started := time.Now()
	pairs, err := group(ix, p)
	if err != nil {
		return nil, fmt.Errorf("grouping failed: %w", err)
	}
	log.Debug("grouping finished",
		"engine", engine,
		"precursors", ix.Len(),
		"pairs", len(pairs),
		"elapsed", time.Since(started),
	)
	return pairs, nil
}

func writePairs(path string, pairs []grouping.Pair, ix *precursor.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := csvfile.WritePairs(f, pairs, ix); err != nil {
		f.Close()
		return fmt.Errorf("failed to write pairs: %w", err)
	}
	return f.Close()
}
