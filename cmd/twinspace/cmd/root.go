// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/TwinSpace/pkg/config"
	"github.com/ChrisMcGann/TwinSpace/pkg/logging"
)

var (
	// Persistent flags
	configPath string
	logLevel   string
	logFormat  string

	// Set up by PersistentPreRunE for every command
	cfg *config.Config
	log *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "twinspace",
	Short: "TwinSpace - spectral similarity of near-isobaric peptides",
	Long: `TwinSpace finds peptide pairs whose precursors are too close in mass and
retention to be told apart at MS1, and scores how similar their fragment
spectra are.

Workflow:
- digest:  FASTA -> peptide list for spectrum prediction
- convert: MSP/SPTXT -> filtered MSP library
- group:   library -> candidate pairs (mass and iRT tolerance)
- score:   library + pairs -> spectral angle similarity
- run:     group and score in one pass

Parameters are read from --config (TOML), then TWINSPACE_* environment
variables (a .env file in the working directory is loaded first), then
command line flags.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Cancelling ctx stops long running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(digestCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log, err = logging.New(level, logFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg = config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log.Debug("loaded config", "file", configPath)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	applyFlags(cmd)
	return cfg.Validate()
}
