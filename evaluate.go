package segmorph

import (
	"fmt"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/evaluation"
	"github.com/happyhackingspace/segmorph/generator"
)

// Evaluation is the outcome of Segmenter.Evaluate.
type Evaluation struct {
	Correct   []evaluation.Pair
	Wrong     []evaluation.Pair
	Predicted []dataset.Sample
	Report    *evaluation.Report
}

// Evaluate scores the segmenter on labeled samples. The decoded
// predictions of the evaluator are checked against an independent Predict
// pass over the same inputs; a disagreement is an ErrInvariant error.
func (s *Segmenter) Evaluate(inputs []dataset.Sample, batchSize int) (*Evaluation, error) {
	gen, err := generator.New(dataset.New(inputs), s.proc, generator.Options{
		BatchSize:   batchSize,
		WithSamples: true,
	})
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	report, err := evaluation.New(s.proc).Run(s.model, gen)
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}

	predicted, err := s.Predict(inputs, batchSize, false)
	if err != nil {
		return nil, err
	}
	if len(predicted) != len(report.Predicted) {
		return nil, fmt.Errorf("segmorph: %w: evaluated %d samples, predicted %d",
			ErrInvariant, len(report.Predicted), len(predicted))
	}
	for i := range predicted {
		if !predicted[i].Equal(report.Predicted[i]) {
			return nil, fmt.Errorf("segmorph: %w: sample %d evaluated as %v, predicted as %v",
				ErrInvariant, i, report.Predicted[i], predicted[i])
		}
	}

	return &Evaluation{
		Correct:   report.Correct,
		Wrong:     report.Wrong,
		Predicted: report.Predicted,
		Report:    report,
	}, nil
}
