package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PadClass is the label class excluded from every metric.
const PadClass = 0

// logLossEps clips probabilities before taking logarithms.
const logLossEps = 1e-15

// Compute calculates the metric set for one pass. predictions and labels
// hold one matrix per word (rows are positions, columns are classes);
// positions whose label is the pad class are masked out, so padding never
// counts for or against a prediction.
//
// The record contains, in order: confusion_matrix, word_acc, acc, loss,
// precision, recall, f1 (macro averaged), auc (one-vs-rest, macro averaged).
func Compute(predictions, labels []*mat.Dense, numClasses int) (*Record, error) {
	if len(predictions) != len(labels) {
		return nil, fmt.Errorf("metrics: %d predictions for %d labels", len(predictions), len(labels))
	}

	if numClasses <= 0 {
		return nil, fmt.Errorf("metrics: number of classes must be > 0, got %d", numClasses)
	}

	var t, p []int
	var loss float64
	correct := 0
	words := len(labels)
	predRow := make([]float64, numClasses)
	labelRow := make([]float64, numClasses)
	for i := range labels {
		if labels[i] == nil || predictions[i] == nil {
			return nil, fmt.Errorf("metrics: word %d has no labels or predictions", i)
		}
		lr, lc := labels[i].Dims()
		pr, pc := predictions[i].Dims()
		if lr != pr || lc != numClasses || pc != numClasses {
			return nil, fmt.Errorf("metrics: word %d: prediction %dx%d, label %dx%d, %d classes",
				i, pr, pc, lr, lc, numClasses)
		}
		match := true
		for r := range lr {
			mat.Row(labelRow, r, labels[i])
			tc := floats.MaxIdx(labelRow)
			if tc == PadClass {
				continue
			}
			mat.Row(predRow, r, predictions[i])
			pcl := floats.MaxIdx(predRow)
			if tc != pcl {
				match = false
			}
			t = append(t, tc)
			p = append(p, pcl)
			loss += crossEntropy(labelRow, predRow)
		}
		if match {
			correct++
		}
	}

	rec := &Record{}
	cm := Confusion(t, p, numClasses)
	rec.Add(Entry{Kind: ConfusionMatrix, Matrix: cm})
	if words == 0 {
		rec.Add(undefined(WordAcc, "no words"))
	} else {
		rec.Add(Entry{Kind: WordAcc, Value: float64(correct) / float64(words)})
	}
	if len(t) == 0 {
		for _, k := range []Kind{Acc, Loss, Precision, Recall, F1, AUC} {
			rec.Add(undefined(k, "no characters"))
		}
		return rec, nil
	}

	hits := 0
	for i := range t {
		if t[i] == p[i] {
			hits++
		}
	}
	rec.Add(Entry{Kind: Acc, Value: float64(hits) / float64(len(t))})
	rec.Add(Entry{Kind: Loss, Value: loss / float64(len(t))})

	prec, rcl, f1 := MacroPRF(cm, presentClasses(t, p))
	rec.Add(Entry{Kind: Precision, Value: prec})
	rec.Add(Entry{Kind: Recall, Value: rcl})
	rec.Add(Entry{Kind: F1, Value: f1})

	if auc, err := MacroAUC(t, p); err != nil {
		rec.Add(Entry{Kind: AUC, Err: err})
	} else {
		rec.Add(Entry{Kind: AUC, Value: auc})
	}
	return rec, nil
}

// crossEntropy is -Σ y·log(p) with p renormalized and clipped.
func crossEntropy(label, pred []float64) float64 {
	sum := floats.Sum(pred)
	var ce float64
	for k, y := range label {
		if y == 0 {
			continue
		}
		q := pred[k]
		if sum > 0 {
			q /= sum
		}
		q = math.Min(math.Max(q, logLossEps), 1-logLossEps)
		ce -= y * math.Log(q)
	}
	return ce
}

// Confusion returns the numClasses×numClasses confusion matrix with true
// classes as rows and predicted classes as columns.
func Confusion(t, p []int, numClasses int) [][]int {
	cm := make([][]int, numClasses)
	for i := range cm {
		cm[i] = make([]int, numClasses)
	}
	for i := range t {
		cm[t[i]][p[i]]++
	}
	return cm
}

// ClassStat holds per-class precision, recall, F1 and support.
type ClassStat struct {
	Class     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PerClass computes per-class statistics from a confusion matrix. A class
// that is never predicted (or never true) scores 0 precision (or recall).
func PerClass(cm [][]int) []ClassStat {
	stats := make([]ClassStat, len(cm))
	for c := range cm {
		tp := cm[c][c]
		var predicted, support int
		for k := range cm {
			predicted += cm[k][c]
			support += cm[c][k]
		}
		s := ClassStat{Class: c, Support: support}
		if predicted > 0 {
			s.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			s.Recall = float64(tp) / float64(support)
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		stats[c] = s
	}
	return stats
}

// MacroPRF averages precision, recall and F1 over the given classes with
// equal weight.
func MacroPRF(cm [][]int, classes []int) (precision, recall, f1 float64) {
	if len(classes) == 0 {
		return 0, 0, 0
	}
	stats := PerClass(cm)
	for _, c := range classes {
		precision += stats[c].Precision
		recall += stats[c].Recall
		f1 += stats[c].F1
	}
	n := float64(len(classes))
	return precision / n, recall / n, f1 / n
}

// MacroAUC is the one-vs-rest ROC-AUC of hard predictions p against true
// classes t, averaged over the classes that occur in t. It is undefined
// when fewer than two true classes occur.
func MacroAUC(t, p []int) (float64, error) {
	classes := presentClasses(t, nil)
	if len(classes) < 2 {
		return 0, fmt.Errorf("%w: auc needs at least two true classes, got %d", ErrMetricUndefined, len(classes))
	}
	var total float64
	y := make([]float64, len(t))
	positive := make([]bool, len(t))
	for _, c := range classes {
		for i := range t {
			y[i] = 0
			if p[i] == c {
				y[i] = 1
			}
			positive[i] = t[i] == c
		}
		stat.SortWeightedLabeled(y, positive, nil)
		tpr, fpr, _ := stat.ROC(nil, y, positive, nil)
		total += integrate.Trapezoidal(fpr, tpr)
	}
	return total / float64(len(classes)), nil
}

// presentClasses returns the sorted set of classes occurring in t or p.
func presentClasses(t, p []int) []int {
	set := make(map[int]bool)
	for _, c := range t {
		set[c] = true
	}
	for _, c := range p {
		set[c] = true
	}
	classes := make([]int, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
