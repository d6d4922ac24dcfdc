package dataset

import "slices"

// Dataset is an ordered, read-only sequence of samples.
type Dataset struct {
	samples []Sample
}

// New builds a dataset from a copy of samples.
func New(samples []Sample) *Dataset {
	return &Dataset{samples: slices.Clone(samples)}
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// At returns the i-th sample.
func (d *Dataset) At(i int) Sample { return d.samples[i] }

// Slice returns the samples in [from, to), clamped to the dataset bounds.
// The returned slice is a copy.
func (d *Dataset) Slice(from, to int) []Sample {
	from = max(from, 0)
	to = min(to, len(d.samples))
	if from >= to {
		return nil
	}
	return slices.Clone(d.samples[from:to])
}

// Samples returns a copy of all samples in order.
func (d *Dataset) Samples() []Sample { return slices.Clone(d.samples) }
