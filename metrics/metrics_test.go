package metrics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const numClasses = 3

// oneHot builds a width×3 matrix from class indices.
func oneHot(classes ...int) *mat.Dense {
	m := mat.NewDense(len(classes), numClasses, nil)
	for r, c := range classes {
		m.Set(r, c, 1)
	}
	return m
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPerfectPredictions(t *testing.T) {
	labels := []*mat.Dense{
		oneHot(1, 2, 2, 1, 1, 2, 2),
		oneHot(1, 2, 2, 1, 0, 0, 0),
	}
	rec, err := Compute(labels, labels, numClasses)
	if err != nil {
		t.Fatal(err)
	}

	cm := rec.Confusion()
	for i := range cm {
		for j := range cm[i] {
			if i != j && cm[i][j] != 0 {
				t.Errorf("confusion[%d][%d] = %d, want 0", i, j, cm[i][j])
			}
		}
	}
	if cm[1][1] != 5 || cm[2][2] != 6 || cm[0][0] != 0 {
		t.Errorf("diagonal = %d %d %d", cm[0][0], cm[1][1], cm[2][2])
	}
	for _, k := range []Kind{WordAcc, Acc, Precision, Recall, F1, AUC} {
		v, err := rec.Scalar(k)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if !approx(v, 1) {
			t.Errorf("%s = %v, want 1", k, v)
		}
	}
	if loss, _ := rec.Scalar(Loss); loss > 1e-9 {
		t.Errorf("loss = %v, want ~0", loss)
	}
}

func TestKnownValues(t *testing.T) {
	labels := []*mat.Dense{oneHot(1, 1), oneHot(2, 2)}
	preds := []*mat.Dense{oneHot(1, 2), oneHot(2, 2)}
	rec, err := Compute(preds, labels, numClasses)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		kind Kind
		want float64
	}{
		{WordAcc, 0.5},
		{Acc, 0.75},
		{Precision, (1 + 2.0/3) / 2},
		{Recall, 0.75},
		{F1, (2.0/3 + 0.8) / 2},
		{AUC, 0.75},
	}
	for _, tt := range tests {
		got, err := rec.Scalar(tt.kind)
		if err != nil {
			t.Errorf("%s: %v", tt.kind, err)
			continue
		}
		if !approx(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if cm := rec.Confusion(); cm[1][2] != 1 {
		t.Errorf("confusion[1][2] = %d, want 1", cm[1][2])
	}
}

func TestPaddingIsMasked(t *testing.T) {
	labels := []*mat.Dense{oneHot(1, 2, 0, 0)}
	preds := []*mat.Dense{oneHot(1, 2, 1, 2)}
	rec, err := Compute(preds, labels, numClasses)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rec.Scalar(WordAcc); v != 1 {
		t.Errorf("word_acc = %v, want 1", v)
	}
	if v, _ := rec.Scalar(Acc); v != 1 {
		t.Errorf("acc = %v, want 1", v)
	}
}

func TestLogLoss(t *testing.T) {
	labels := []*mat.Dense{oneHot(1, 2)}
	preds := []*mat.Dense{mat.NewDense(2, numClasses, []float64{
		0, 0.5, 0.5,
		0, 0.2, 0.8,
	})}
	rec, err := Compute(preds, labels, numClasses)
	if err != nil {
		t.Fatal(err)
	}
	want := (-math.Log(0.5) - math.Log(0.8)) / 2
	if got, _ := rec.Scalar(Loss); !approx(got, want) {
		t.Errorf("loss = %v, want %v", got, want)
	}
}

func TestAUCUndefinedForSingleClass(t *testing.T) {
	labels := []*mat.Dense{oneHot(1, 1, 1)}
	rec, err := Compute(labels, labels, numClasses)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Scalar(AUC)
	if !errors.Is(err, ErrMetricUndefined) {
		t.Errorf("err = %v, want ErrMetricUndefined", err)
	}
	if _, ok := rec.Scalars()["auc"]; ok {
		t.Error("undefined auc should not be listed in Scalars")
	}
	if _, ok := rec.Scalars()["acc"]; !ok {
		t.Error("acc should be listed in Scalars")
	}
}

func TestEmptyPass(t *testing.T) {
	rec, err := Compute(nil, nil, numClasses)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []Kind{WordAcc, Acc, Loss, AUC} {
		if _, err := rec.Scalar(k); !errors.Is(err, ErrMetricUndefined) {
			t.Errorf("%s: err = %v, want ErrMetricUndefined", k, err)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	if _, err := Compute([]*mat.Dense{oneHot(1)}, nil, numClasses); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := Compute([]*mat.Dense{oneHot(1, 2)}, []*mat.Dense{oneHot(1)}, numClasses); err == nil {
		t.Error("expected error for row mismatch")
	}
}

func TestRecordNames(t *testing.T) {
	rec := &Record{Processed: true}
	rec.Add(Entry{Kind: Acc, Value: 0.5})
	rec.Add(Entry{Kind: Acc, Value: 0.7})
	if len(rec.Entries) != 1 {
		t.Errorf("Add should replace, got %d entries", len(rec.Entries))
	}
	if rec.Name(Acc) != "acc_processed" {
		t.Errorf("Name = %q", rec.Name(Acc))
	}
	if v := rec.Scalars()["acc_processed"]; v != 0.7 {
		t.Errorf("acc_processed = %v, want 0.7", v)
	}
	if _, err := rec.Scalar(F1); !errors.Is(err, ErrMetricUndefined) {
		t.Errorf("missing metric err = %v", err)
	}
}

func TestPerClass(t *testing.T) {
	cm := [][]int{
		{0, 0, 0},
		{0, 1, 1},
		{0, 0, 2},
	}
	stats := PerClass(cm)
	if stats[0].Precision != 0 || stats[0].Support != 0 {
		t.Errorf("class 0 = %+v", stats[0])
	}
	if !approx(stats[1].Recall, 0.5) || !approx(stats[2].Precision, 2.0/3) {
		t.Errorf("stats = %+v", stats)
	}
}
