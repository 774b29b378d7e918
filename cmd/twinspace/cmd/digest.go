package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/config"
	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/digest"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader"
	"github.com/ChrisMcGann/TwinSpace/pkg/reader/fasta"
	"github.com/ChrisMcGann/TwinSpace/pkg/writer/csvfile"
)

var (
	enzymeName string
	minLength  int
	maxLength  int
	charges    string
	unique     bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest a protein FASTA into a peptide table",
	Long: `Digest every protein of a FASTA file in silico and write one row per
peptide and charge state, ready to be sent to a spectrum prediction service.

Examples:
  # Tryptic peptides of 7 to 30 residues at charges 2 and 3
  twinspace digest --in proteome.fasta --out peptides.csv --min-length 7 --max-length 30

  # HLA-like peptides: every 8 to 11-mer
  twinspace digest --in proteome.fasta --out hla.csv --enzyme nonspecific --min-length 8 --max-length 11 --charges 1,2`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input FASTA file (required)")
	digestCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output peptides CSV (required)")
	digestCmd.Flags().StringVar(&enzymeName, "enzyme", "trypsin", "Enzyme: trypsin, chymotrypsin or nonspecific")
	digestCmd.Flags().IntVar(&minLength, "min-length", 7, "Minimum peptide length")
	digestCmd.Flags().IntVar(&maxLength, "max-length", 30, "Maximum peptide length (0 = no limit)")
	digestCmd.Flags().StringVar(&charges, "charges", "2,3", "Comma-separated precursor charge states")
	digestCmd.Flags().BoolVar(&unique, "unique", true, "Write each peptide sequence once")
	digestCmd.MarkFlagRequired("in")
	digestCmd.MarkFlagRequired("out")
}

func runDigest(cmd *cobra.Command, args []string) error {
	enzyme, err := digest.ParseEnzyme(enzymeName)
	if err != nil {
		return err
	}
	opts := digest.Options{MinLength: minLength, MaxLength: maxLength, Unique: unique}
	if err := opts.Validate(enzyme); err != nil {
		return err
	}

	var zs []int
	for _, s := range config.SplitList(charges) {
		z, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid charge '%s': %w", s, err)
		}
		zs = append(zs, z)
	}

	fmt.Printf("Digesting %s with %s...\n", inputFile, enzyme)

	in, err := reader.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer, err := csvfile.NewPeptideWriter(out, core.DefaultMassTable(), zs)
	if err != nil {
		return err
	}

	fr := fasta.NewReader(in)
	seen := make(map[string]struct{})
	proteins, peptides, skipped := 0, 0, 0

	for fr.Next() {
		rec := fr.Record()
		proteins++
		for _, p := range digest.Digest(rec.Accession(), rec.Sequence, enzyme, opts, seen) {
			if err := writer.Write(p); err != nil {
				if errors.Is(err, core.ErrUnrecognizedToken) {
					// X, B, Z, U and the like
					skipped++
					continue
				}
				return err
			}
			peptides++
		}
	}
	if err := fr.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write peptides: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	fmt.Printf("\nDigestion complete!\n")
	fmt.Printf("Proteins: %d\n", proteins)
	fmt.Printf("Peptides: %d (%d rows)\n", peptides, writer.Rows())
	if skipped > 0 {
		fmt.Printf("Skipped: %d peptides (unknown residues)\n", skipped)
	}
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}
