// Package metrics computes word-level and character-level tagging metrics.
package metrics

import (
	"errors"
	"fmt"
)

// ErrMetricUndefined is returned for metrics that have no value on the
// given input, such as ROC-AUC when only one true class occurs.
var ErrMetricUndefined = errors.New("metric undefined")

// Kind identifies a metric.
type Kind int

const (
	ConfusionMatrix Kind = iota
	WordAcc
	Acc
	Loss
	Precision
	Recall
	F1
	AUC
	SampleAcc
)

var kindNames = [...]string{
	ConfusionMatrix: "confusion_matrix",
	WordAcc:         "word_acc",
	Acc:             "acc",
	Loss:            "loss",
	Precision:       "precision",
	Recall:          "recall",
	F1:              "f1",
	AUC:             "auc",
	SampleAcc:       "sample_acc",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is one metric value. Matrix is set for ConfusionMatrix only. Err
// wraps ErrMetricUndefined when the metric has no value.
type Entry struct {
	Kind   Kind
	Value  float64
	Matrix [][]int
	Err    error
}

// Record is an ordered set of metrics from one evaluation pass. Processed
// records were computed from decoded (and possibly repaired) predictions.
type Record struct {
	Processed bool
	Entries   []Entry
}

// Add appends an entry, replacing an earlier entry of the same kind.
func (r *Record) Add(e Entry) {
	for i := range r.Entries {
		if r.Entries[i].Kind == e.Kind {
			r.Entries[i] = e
			return
		}
	}
	r.Entries = append(r.Entries, e)
}

// Get returns the entry of the given kind.
func (r *Record) Get(k Kind) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Kind == k {
			return e, true
		}
	}
	return Entry{}, false
}

// Scalar returns the value of a scalar metric.
func (r *Record) Scalar(k Kind) (float64, error) {
	e, ok := r.Get(k)
	if !ok {
		return 0, fmt.Errorf("%w: %s not computed", ErrMetricUndefined, r.Name(k))
	}
	if e.Err != nil {
		return 0, e.Err
	}
	return e.Value, nil
}

// Confusion returns the confusion matrix, or nil if it was not computed.
func (r *Record) Confusion() [][]int {
	e, _ := r.Get(ConfusionMatrix)
	return e.Matrix
}

// Name returns the reporting name of a metric, with a "_processed" suffix
// for processed records.
func (r *Record) Name(k Kind) string {
	if r.Processed {
		return k.String() + "_processed"
	}
	return k.String()
}

// Scalars returns every defined scalar metric by reporting name.
func (r *Record) Scalars() map[string]float64 {
	out := make(map[string]float64, len(r.Entries))
	for _, e := range r.Entries {
		if e.Kind == ConfusionMatrix || e.Err != nil {
			continue
		}
		out[r.Name(e.Kind)] = e.Value
	}
	return out
}

func undefined(k Kind, reason string) Entry {
	return Entry{Kind: k, Err: fmt.Errorf("%w: %s: %s", ErrMetricUndefined, k, reason)}
}
