// Package generator produces encoded, fixed-size batches from a dataset.
//
// A Generator is lazy and restartable: every call to Pass (or every range
// over Batches) starts a fresh traversal, reshuffling when configured to.
// A Generator must not be traversed by several goroutines at once; the
// permutation source is shared between passes.
package generator

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/processing"
	"gonum.org/v1/gonum/mat"
)

// ErrConfiguration is returned for invalid generator options.
var ErrConfiguration = errors.New("invalid configuration")

// Options configures a Generator.
type Options struct {
	BatchSize int
	// WithSamples includes the source samples in every batch.
	WithSamples bool
	// Shuffle reorders the samples once per pass, never within a batch.
	Shuffle bool
	// Seed seeds the shuffle permutation.
	Seed uint64
	// Sparse leaves labels as class indices instead of one-hot matrices.
	Sparse bool
}

// DefaultOptions returns options for an ordered, labeled pass.
func DefaultOptions() Options {
	return Options{
		BatchSize:   32,
		WithSamples: true,
	}
}

// Batch is one encoded batch.
type Batch struct {
	Index   int
	Inputs  []*mat.Dense
	Labels  []*mat.Dense
	Sparse  [][]int
	Samples []dataset.Sample
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int { return len(b.Inputs) }

// Generator yields encoded batches over a dataset.
type Generator struct {
	ds   *dataset.Dataset
	proc *processing.Processor
	opts Options
	rng  *rand.Rand
}

// New creates a generator. The batch size must be positive.
func New(ds *dataset.Dataset, proc *processing.Processor, opts Options) (*Generator, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be > 0, got %d", ErrConfiguration, opts.BatchSize)
	}
	if ds == nil || proc == nil {
		return nil, fmt.Errorf("%w: dataset and processor are required", ErrConfiguration)
	}
	return &Generator{
		ds:   ds,
		proc: proc,
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Len returns the number of batches in a pass.
func (g *Generator) Len() int {
	return (g.ds.Len() + g.opts.BatchSize - 1) / g.opts.BatchSize
}

// Options returns the generator configuration.
func (g *Generator) Options() Options { return g.opts }

// Pass starts a new traversal of the dataset.
func (g *Generator) Pass() *Pass {
	order := make([]int, g.ds.Len())
	for i := range order {
		order[i] = i
	}
	if g.opts.Shuffle {
		g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return &Pass{g: g, order: order}
}

// Batches ranges over a new pass. Iteration stops after the first error.
func (g *Generator) Batches() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		p := g.Pass()
		for p.Next() {
			if !yield(p.Batch(), nil) {
				return
			}
		}
		if err := p.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Pass is a single traversal. Use it like bufio.Scanner:
//
//	p := g.Pass()
//	for p.Next() {
//		b := p.Batch()
//	}
//	if err := p.Err(); err != nil { ... }
type Pass struct {
	g     *Generator
	order []int
	next  int
	cur   *Batch
	err   error
}

// Next encodes the next batch. It returns false at the end of the pass or
// on the first encoding error.
func (p *Pass) Next() bool {
	if p.err != nil || p.next >= p.g.Len() {
		p.cur = nil
		return false
	}
	idx := p.next
	p.next++

	bs := p.g.opts.BatchSize
	from := idx * bs
	to := min(from+bs, len(p.order))
	samples := make([]dataset.Sample, 0, to-from)
	for _, i := range p.order[from:to] {
		samples = append(samples, p.g.ds.At(i))
	}

	enc, err := p.g.proc.Parse(samples, !p.g.opts.Sparse)
	if err != nil {
		p.err = fmt.Errorf("batch %d: %w", idx, err)
		p.cur = nil
		return false
	}
	b := &Batch{
		Index:  idx,
		Inputs: enc.Inputs,
		Labels: enc.Labels,
		Sparse: enc.Sparse,
	}
	if p.g.opts.WithSamples {
		b.Samples = samples
	}
	slog.Debug("Batch encoded", "batch", idx+1, "of", p.g.Len(), "size", len(samples), "width", enc.Width)
	p.cur = b
	return true
}

// Batch returns the batch produced by the last successful Next.
func (p *Pass) Batch() *Batch { return p.cur }

// Err returns the error that stopped the pass, if any.
func (p *Pass) Err() error { return p.err }
