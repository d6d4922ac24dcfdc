// Package evaluation runs a model over a labeled dataset and scores its
// predictions before and after decoding.
package evaluation

import (
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/generator"
	"github.com/happyhackingspace/segmorph/metrics"
	"github.com/happyhackingspace/segmorph/model"
	"github.com/happyhackingspace/segmorph/processing"
	"gonum.org/v1/gonum/mat"
)

// Step is one evaluated batch: model outputs, one-hot labels and the
// source samples, index aligned.
type Step struct {
	Predictions []*mat.Dense
	Labels      []*mat.Dense
	Samples     []dataset.Sample
}

// Pair is a decoded prediction next to its ground truth.
type Pair struct {
	Predicted dataset.Sample
	Expected  dataset.Sample
}

// Report is the result of an evaluation pass.
type Report struct {
	// Raw is computed on the model outputs.
	Raw *metrics.Record
	// Processed is computed on the decoded predictions, re-encoded.
	Processed *metrics.Record
	// Correct and Wrong partition the pass in input order.
	Correct []Pair
	Wrong   []Pair
	// Predicted holds every decoded sample in input order.
	Predicted []dataset.Sample
	// Repairs counts decoded predictions whose tag sequence was invalid.
	Repairs int
	// Tags names the classes of the confusion matrices.
	Tags []string
}

// Evaluator scores model outputs against ground truth.
type Evaluator struct {
	proc *processing.Processor
}

// New returns an evaluator decoding with proc.
func New(proc *processing.Processor) *Evaluator {
	return &Evaluator{proc: proc}
}

// Collect runs m over one full pass of gen. The generator must carry
// samples and one-hot labels, and every sample must be labeled.
func (e *Evaluator) Collect(m model.Model, gen *generator.Generator) ([]Step, error) {
	opts := gen.Options()
	if !opts.WithSamples || opts.Sparse {
		return nil, fmt.Errorf("%w: evaluation needs samples and one-hot labels", generator.ErrConfiguration)
	}

	var steps []Step
	for batch, err := range gen.Batches() {
		if err != nil {
			return nil, err
		}
		for i, l := range batch.Labels {
			if l == nil {
				return nil, fmt.Errorf("batch %d: %w: %q has no segments",
					batch.Index, dataset.ErrInvalidSample, batch.Samples[i].Word())
			}
		}
		out, err := m.Predict(batch.Inputs)
		if err != nil {
			return nil, fmt.Errorf("batch %d: predict: %w", batch.Index, err)
		}
		if err := model.CheckBatch(batch.Inputs, out); err != nil {
			return nil, fmt.Errorf("batch %d: %w", batch.Index, err)
		}
		steps = append(steps, Step{
			Predictions: out,
			Labels:      batch.Labels,
			Samples:     batch.Samples,
		})
	}
	return steps, nil
}

// Evaluate computes the raw and processed metrics of collected steps.
func (e *Evaluator) Evaluate(steps []Step) (*Report, error) {
	var preds, labels []*mat.Dense
	var samples []dataset.Sample
	for _, s := range steps {
		if len(s.Predictions) != len(s.Labels) || len(s.Samples) != len(s.Labels) {
			return nil, fmt.Errorf("evaluation: step has %d predictions, %d labels, %d samples",
				len(s.Predictions), len(s.Labels), len(s.Samples))
		}
		preds = append(preds, s.Predictions...)
		labels = append(labels, s.Labels...)
		samples = append(samples, s.Samples...)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: evaluation requires a non-empty dataset", generator.ErrConfiguration)
	}

	numClasses := e.proc.NumClasses()
	raw, err := metrics.Compute(preds, labels, numClasses)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Raw:       raw,
		Predicted: make([]dataset.Sample, 0, len(samples)),
		Tags:      e.proc.Scheme.Tags(),
	}
	reencoded := make([]*mat.Dense, len(samples))
	for i, want := range samples {
		pred, err := e.proc.Trim(preds[i], want.Word())
		if err != nil {
			return nil, err
		}
		got, repaired, err := e.proc.Decode(want.Word(), pred)
		if err != nil {
			return nil, err
		}
		if repaired {
			report.Repairs++
		}
		report.Predicted = append(report.Predicted, got)
		if got.Equal(want) {
			report.Correct = append(report.Correct, Pair{Predicted: got, Expected: want})
		} else {
			report.Wrong = append(report.Wrong, Pair{Predicted: got, Expected: want})
		}

		rows, _ := labels[i].Dims()
		reencoded[i], err = e.padded(got, rows)
		if err != nil {
			return nil, err
		}
	}

	processed, err := metrics.Compute(reencoded, labels, numClasses)
	if err != nil {
		return nil, err
	}
	processed.Processed = true
	processed.Add(metrics.Entry{
		Kind:  metrics.SampleAcc,
		Value: float64(len(report.Correct)) / float64(len(samples)),
	})
	report.Processed = processed

	args := []any{"samples", len(samples), "correct", len(report.Correct), "repairs", report.Repairs}
	for _, rec := range []*metrics.Record{raw, processed} {
		for _, k := range []metrics.Kind{metrics.WordAcc, metrics.Acc} {
			if v, err := rec.Scalar(k); err == nil {
				args = append(args, rec.Name(k), v)
			}
		}
	}
	slog.Info("Evaluation completed", args...)
	return report, nil
}

// Run is Collect followed by Evaluate.
func (e *Evaluator) Run(m model.Model, gen *generator.Generator) (*Report, error) {
	steps, err := e.Collect(m, gen)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(steps)
}

// padded one-hot encodes s and pads it with pad rows to width rows.
func (e *Evaluator) padded(s dataset.Sample, width int) (*mat.Dense, error) {
	oh, err := e.proc.OneHot(s)
	if err != nil {
		return nil, err
	}
	n, cols := oh.Dims()
	if n == width {
		return oh, nil
	}
	if n > width {
		return nil, fmt.Errorf("%w: %q is longer than its labels", processing.ErrShape, s.Word())
	}
	out := mat.NewDense(width, cols, nil)
	out.Slice(0, n, 0, cols).(*mat.Dense).Copy(oh)
	for r := n; r < width; r++ {
		out.Set(r, processing.PadClass, 1)
	}
	return out, nil
}
