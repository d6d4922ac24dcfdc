package evaluation

import (
	"errors"
	"fmt"
	"io"

	"github.com/happyhackingspace/segmorph/metrics"
	"github.com/happyhackingspace/segmorph/processing"
)

// Write prints a human-readable summary of the report: both metric sets,
// the sample accuracy, the confusion matrix and the per-class report of
// the processed predictions.
func (r *Report) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	total := len(r.Correct) + len(r.Wrong)
	ew.printf("Samples: %d  correct: %d  wrong: %d  repaired: %d\n",
		total, len(r.Correct), len(r.Wrong), r.Repairs)

	for _, rec := range []*metrics.Record{r.Raw, r.Processed} {
		if rec == nil {
			continue
		}
		ew.printf("\n")
		for _, e := range rec.Entries {
			if e.Kind == metrics.ConfusionMatrix {
				continue
			}
			if e.Err != nil {
				if errors.Is(e.Err, metrics.ErrMetricUndefined) {
					ew.printf("%-22s %8s\n", rec.Name(e.Kind), "n/a")
					continue
				}
				return e.Err
			}
			ew.printf("%-22s %8.4f\n", rec.Name(e.Kind), e.Value)
		}
	}

	if r.Processed != nil {
		if v, err := r.Processed.Scalar(metrics.SampleAcc); err == nil {
			ew.printf("\nWord accuracy after filtering only valid combinations: %.1f%%\n", v*100)
		}
		cm := r.Processed.Confusion()
		writeConfusionMatrix(ew, cm, r.Tags)
		writeClassReport(ew, cm, r.Tags)
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func tagName(tags []string, c int) string {
	if c < len(tags) {
		return tags[c]
	}
	return fmt.Sprint(c)
}

func writeConfusionMatrix(ew *errWriter, cm [][]int, tags []string) {
	if len(cm) == 0 {
		return
	}

	ew.printf("\nConfusion matrix (rows=true, cols=predicted):\n")
	ew.printf("%8s", "")
	for c := range cm {
		if c == processing.PadClass {
			continue
		}
		ew.printf(" %5s", tagName(tags, c))
	}
	ew.printf("  total  acc%%\n")

	for t := range cm {
		if t == processing.PadClass {
			continue
		}
		ew.printf("%8s", tagName(tags, t))
		total := 0
		for p, count := range cm[t] {
			total += count
			if p == processing.PadClass {
				continue
			}
			if count == 0 {
				ew.printf(" %5s", ".")
			} else {
				ew.printf(" %5d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(cm[t][t]) / float64(total) * 100
		}
		ew.printf("  %5d %5.1f\n", total, acc)
	}
}

func writeClassReport(ew *errWriter, cm [][]int, tags []string) {
	if len(cm) == 0 {
		return
	}
	ew.printf("\nPer-class metrics:\n")
	ew.printf("%8s  %6s  %6s  %6s  %7s\n", "class", "prec", "recall", "f1", "support")
	for _, s := range metrics.PerClass(cm) {
		if s.Class == processing.PadClass {
			continue
		}
		ew.printf("%8s  %5.1f%%  %5.1f%%  %5.1f%%  %7d\n",
			tagName(tags, s.Class), s.Precision*100, s.Recall*100, s.F1*100, s.Support)
	}
}
