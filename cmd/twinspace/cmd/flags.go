package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/config"
)

var (
	// Library input flags
	inputFile   string
	inputFormat string
	modsCSV     string

	// Grouping flags
	massTolerance      float64
	retentionTolerance float64
	usePPM             bool
	naive              bool

	// Scoring flags
	fragmentTolerance    float64
	fragmentTolerancePPM float64
	mzWeight             float64
	intensityWeight      float64
	workers              int
	chunkSize            int

	// Filter flags
	topN          int
	cutoffPercent float64
	ionTypes      string
	dropZero      bool
)

func addLibraryFlags(c *cobra.Command) {
	c.Flags().StringVarP(&inputFile, "in", "i", "", "Input library path (required)")
	c.Flags().StringVarP(&inputFormat, "from", "f", "", "Input format: msp or sptxt (auto-detect if not specified)")
	c.Flags().StringVar(&modsCSV, "mods", "", "CSV of extra modifications (mod,massshift)")
	c.MarkFlagRequired("in")
}

func addGroupingFlags(c *cobra.Command) {
	d := config.Default().Grouping
	c.Flags().Float64Var(&massTolerance, "mass-tol", d.MassTolerance, "Precursor mass tolerance (ppm with --ppm, else absolute)")
	c.Flags().Float64Var(&retentionTolerance, "rt-tol", d.RetentionTolerance, "Retention index tolerance (iRT units)")
	c.Flags().BoolVar(&usePPM, "ppm", d.UsePPM, "Interpret --mass-tol in ppm")
	c.Flags().BoolVar(&naive, "naive", d.Naive, "Use the pairwise scan instead of the k-d tree")
}

func addScoringFlags(c *cobra.Command) {
	d := config.Default()
	c.Flags().Float64Var(&fragmentTolerance, "frag-tol", d.Similarity.FragmentTolerance, "Absolute fragment m/z tolerance")
	c.Flags().Float64Var(&fragmentTolerancePPM, "frag-ppm", d.Similarity.FragmentTolerancePPM, "Relative fragment m/z tolerance (ppm)")
	c.Flags().Float64Var(&mzWeight, "mz-weight", d.Similarity.MZWeight, "Exponent applied to m/z in peak weights")
	c.Flags().Float64Var(&intensityWeight, "intensity-weight", d.Similarity.IntensityWeight, "Exponent applied to intensity in peak weights")
	c.Flags().IntVar(&workers, "workers", d.Pipeline.Workers, "Number of worker goroutines (0 = number of CPUs)")
	c.Flags().IntVar(&chunkSize, "chunk-size", d.Pipeline.ChunkSize, "Pairs per unit of work")
}

func addFilterFlags(c *cobra.Command) {
	c.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	c.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	c.Flags().StringVar(&ionTypes, "ion-types", "", "Comma-separated ion types to keep (e.g., 'b,y')")
	c.Flags().BoolVar(&dropZero, "drop-zero", false, "Remove zero intensity peaks")
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(c *cobra.Command) {
	f := c.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	set("mass-tol", func() { cfg.Grouping.MassTolerance = massTolerance })
	set("rt-tol", func() { cfg.Grouping.RetentionTolerance = retentionTolerance })
	set("ppm", func() { cfg.Grouping.UsePPM = usePPM })
	set("naive", func() { cfg.Grouping.Naive = naive })

	set("frag-tol", func() { cfg.Similarity.FragmentTolerance = fragmentTolerance })
	set("frag-ppm", func() { cfg.Similarity.FragmentTolerancePPM = fragmentTolerancePPM })
	set("mz-weight", func() { cfg.Similarity.MZWeight = mzWeight })
	set("intensity-weight", func() { cfg.Similarity.IntensityWeight = intensityWeight })
	set("workers", func() { cfg.Pipeline.Workers = workers })
	set("chunk-size", func() { cfg.Pipeline.ChunkSize = chunkSize })

	set("top-n", func() { cfg.Filter.TopN = topN })
	set("cutoff", func() { cfg.Filter.IntensityCutoff = cutoffPercent })
	set("ion-types", func() { cfg.Filter.IonTypes = config.SplitList(ionTypes) })
	set("drop-zero", func() { cfg.Filter.DropZeroIntensity = dropZero })
}
