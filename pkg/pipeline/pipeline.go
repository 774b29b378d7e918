// Package pipeline scores every candidate pair produced by the grouping
// engine, optionally spreading chunks of pairs over a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/TwinSpace/pkg/core"
	"github.com/ChrisMcGann/TwinSpace/pkg/grouping"
	"github.com/ChrisMcGann/TwinSpace/pkg/logging"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
	"github.com/ChrisMcGann/TwinSpace/pkg/similarity"
)

// DefaultChunkSize is the number of pairs per unit of work.
const DefaultChunkSize = 1000

// SpectrumSource looks up spectra by precursor ID. core.SpectrumSet
// implements it.
type SpectrumSource interface {
	Spectrum(id int) (*core.Spectrum, bool)
}

// Params are the matching and scoring parameters.
type Params struct {
	Tolerance similarity.Tolerance
	Weights   similarity.Weights
}

// DefaultParams matches within 10 ppm and uses the default weights.
func DefaultParams() Params {
	return Params{
		Tolerance: similarity.Tolerance{PPM: 10},
		Weights:   similarity.DefaultWeights(),
	}
}

// Options controls parallel execution.
type Options struct {
	Workers   int // defaults to runtime.NumCPU()
	ChunkSize int // defaults to DefaultChunkSize
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Logger == nil {
		o.Logger = logging.Noop().Logger
	}
	return o
}

// ProcessChunk scores pairs sequentially and returns one Result per pair in
// input order. Problems with a single pair are reported in its Status and
// never stop the chunk.
func ProcessChunk(pairs []grouping.Pair, ix *precursor.Index, spectra SpectrumSource, p Params) []Result {
	results := make([]Result, len(pairs))
	for i, pair := range pairs {
		results[i] = processPair(pair, ix, spectra, p)
	}
	return results
}

func processPair(pair grouping.Pair, ix *precursor.Index, spectra SpectrumSource, p Params) Result {
	r := Result{A: pair.A, B: pair.B}

	recA, okA := ix.Lookup(pair.A)
	recB, okB := ix.Lookup(pair.B)
	if okA {
		r.NameA, r.MassA, r.RetentionA = recA.Name, recA.Mass, recA.RetentionIndex
	}
	if okB {
		r.NameB, r.MassB, r.RetentionB = recB.Name, recB.Mass, recB.RetentionIndex
	}

	specA, okSpecA := spectra.Spectrum(pair.A)
	specB, okSpecB := spectra.Spectrum(pair.B)
	if !okA || !okB || !okSpecA || !okSpecB {
		return unscored(r, StatusUnavailable)
	}

	score, err := similarity.Score(specA.Peaks, specB.Peaks, p.Tolerance, p.Weights)
	switch {
	case errors.Is(err, similarity.ErrUndefinedSimilarity):
		return unscored(r, StatusUndefined)
	case err != nil:
		return unscored(r, StatusInvalid)
	}

	r.Score = score
	r.Status = StatusOK
	return r
}

// Chunk splits pairs into consecutive sub-slices of at most size pairs.
func Chunk(pairs []grouping.Pair, size int) [][]grouping.Pair {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]grouping.Pair, 0, (len(pairs)+size-1)/size)
	for start := 0; start < len(pairs); start += size {
		end := min(start+size, len(pairs))
		chunks = append(chunks, pairs[start:end])
	}
	return chunks
}

// Run scores all pairs with up to opts.Workers chunks in flight. Results keep
// the input order. Cancelling ctx stops dispatching new chunks; Run then
// returns ctx.Err().
func Run(ctx context.Context, pairs []grouping.Pair, ix *precursor.Index, spectra SpectrumSource, p Params, opts Options) ([]Result, error) {
	if err := p.Tolerance.Validate(); err != nil {
		return nil, err
	}
	if err := p.Weights.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	log := opts.Logger.With("pairs", len(pairs), "workers", opts.Workers, "chunk_size", opts.ChunkSize)
	started := time.Now()

	results := make([]Result, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for n, chunk := range Chunk(pairs, opts.ChunkSize) {
		if err := gctx.Err(); err != nil {
			break
		}
		offset := n * opts.ChunkSize
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			copy(results[offset:], ProcessChunk(chunk, ix, spectra, p))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("similarity run: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("similarity run: %w", err)
	}

	var unavailable, undefined, invalid int
	for _, r := range results {
		switch r.Status {
		case StatusUnavailable:
			unavailable++
		case StatusUndefined:
			undefined++
		case StatusInvalid:
			invalid++
		}
	}
	if unavailable+undefined+invalid > 0 {
		log.Warn("pairs without score", "unavailable", unavailable, "undefined", undefined, "invalid", invalid)
	}
	log.Debug("similarity run finished", "elapsed", time.Since(started))

	return results, nil
}
