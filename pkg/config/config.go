// Package config loads run parameters from TOML files and TWINSPACE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ChrisMcGann/TwinSpace/pkg/filter"
	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/pipeline"
	"github.com/ChrisMcGann/TwinSpace/pkg/similarity"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TWINSPACE_"

type GroupingConfig struct {
	MassTolerance      float64 `toml:"mass_tolerance"`
	RetentionTolerance float64 `toml:"retention_tolerance"`
	UsePPM             bool    `toml:"use_ppm"`
	Naive              bool    `toml:"naive"`
}

type SimilarityConfig struct {
	FragmentTolerance    float64 `toml:"fragment_tolerance"`
	FragmentTolerancePPM float64 `toml:"fragment_tolerance_ppm"`
	MZWeight             float64 `toml:"mz_weight"`
	IntensityWeight      float64 `toml:"intensity_weight"`
}

type PipelineConfig struct {
	Workers   int `toml:"workers"`
	ChunkSize int `toml:"chunk_size"`
}

type FilterConfig struct {
	TopN              int      `toml:"top_n"`
	IntensityCutoff   float64  `toml:"intensity_cutoff"`
	IonTypes          []string `toml:"ion_types"`
	DropZeroIntensity bool     `toml:"drop_zero_intensity"`
}

type Config struct {
	Grouping   GroupingConfig   `toml:"grouping"`
	Similarity SimilarityConfig `toml:"similarity"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Filter     FilterConfig     `toml:"filter"`
}

// Default returns the parameters of a standard run: 10 ppm / 5 iRT grouping,
// 10 ppm fragment matching and square-root intensity weighting. Peaks are not
// filtered; zero-intensity peaks take part in matching.
func Default() *Config {
	return &Config{
		Grouping: GroupingConfig{
			MassTolerance:      10,
			RetentionTolerance: 5,
			UsePPM:             true,
		},
		Similarity: SimilarityConfig{
			FragmentTolerancePPM: 10,
			MZWeight:             0,
			IntensityWeight:      0.5,
		},
		Pipeline: PipelineConfig{
			ChunkSize: pipeline.DefaultChunkSize,
		},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TWINSPACE_* variables, e.g.
// TWINSPACE_MASS_TOLERANCE or TWINSPACE_WORKERS.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	floats := map[string]*float64{
		"MASS_TOLERANCE":         &c.Grouping.MassTolerance,
		"RETENTION_TOLERANCE":    &c.Grouping.RetentionTolerance,
		"FRAGMENT_TOLERANCE":     &c.Similarity.FragmentTolerance,
		"FRAGMENT_TOLERANCE_PPM": &c.Similarity.FragmentTolerancePPM,
		"MZ_WEIGHT":              &c.Similarity.MZWeight,
		"INTENSITY_WEIGHT":       &c.Similarity.IntensityWeight,
		"INTENSITY_CUTOFF":       &c.Filter.IntensityCutoff,
	}
	ints := map[string]*int{
		"WORKERS":    &c.Pipeline.Workers,
		"CHUNK_SIZE": &c.Pipeline.ChunkSize,
		"TOP_N":      &c.Filter.TopN,
	}
	bools := map[string]*bool{
		"USE_PPM":             &c.Grouping.UsePPM,
		"NAIVE":               &c.Grouping.Naive,
		"DROP_ZERO_INTENSITY": &c.Filter.DropZeroIntensity,
	}

	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid %s%s '%s': %w", EnvPrefix, key, v, err)
			}
			*dst = f
		}
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s%s '%s': %w", EnvPrefix, key, v, err)
			}
			*dst = n
		}
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s%s '%s': %w", EnvPrefix, key, v, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvPrefix + "ION_TYPES"); ok {
		c.Filter.IonTypes = SplitList(v)
	}

	return nil
}

// SplitList splits a comma-separated list, dropping blank entries.
func SplitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.GroupingParams().Validate(); err != nil {
		return fmt.Errorf("grouping: %w", err)
	}
	if err := c.Tolerance().Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	if err := c.PipelineParams().Weights.Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	if c.Pipeline.Workers < 0 || c.Pipeline.ChunkSize < 0 {
		return fmt.Errorf("pipeline: workers and chunk size must be non-negative")
	}
	f := c.FilterConfig()
	if err := f.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

// GroupingParams returns the proximity parameters.
func (c *Config) GroupingParams() grouping.Params {
	return grouping.Params{
		MassTolerance:      c.Grouping.MassTolerance,
		RetentionTolerance: c.Grouping.RetentionTolerance,
		UsePPM:             c.Grouping.UsePPM,
	}
}

// Tolerance returns the fragment matching tolerance.
func (c *Config) Tolerance() similarity.Tolerance {
	return similarity.Tolerance{
		Absolute: c.Similarity.FragmentTolerance,
		PPM:      c.Similarity.FragmentTolerancePPM,
	}
}

// PipelineParams returns the matching and scoring parameters.
func (c *Config) PipelineParams() pipeline.Params {
	return pipeline.Params{
		Tolerance: c.Tolerance(),
		Weights: similarity.Weights{
			MZ:        c.Similarity.MZWeight,
			Intensity: c.Similarity.IntensityWeight,
		},
	}
}

// PipelineOptions returns the parallel execution options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Workers:   c.Pipeline.Workers,
		ChunkSize: c.Pipeline.ChunkSize,
	}
}

// FilterConfig returns the peak preprocessing configuration.
func (c *Config) FilterConfig() filter.Config {
	return filter.Config{
		TopN:              c.Filter.TopN,
		IntensityCutoff:   c.Filter.IntensityCutoff,
		IonTypes:          c.Filter.IonTypes,
		DropZeroIntensity: c.Filter.DropZeroIntensity,
	}
}
