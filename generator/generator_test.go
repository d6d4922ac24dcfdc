package generator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/processing"
)

func words(n int) []dataset.Sample {
	letters := "abcdefghijklmnopqrstuvwxyz"
	samples := make([]dataset.Sample, n)
	for i := range n {
		w := string(letters[i%26]) + string(letters[(i/26)%26])
		samples[i] = dataset.MustSample(w, w[:1], w[1:])
	}
	return samples
}

func newGenerator(t *testing.T, samples []dataset.Sample, opts Options) *Generator {
	t.Helper()
	proc, err := processing.Fit(processing.SchemeBoundary, samples, 0, processing.UnknownFail)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(dataset.New(samples), proc, opts)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func collect(t *testing.T, g *Generator) ([]dataset.Sample, []int) {
	t.Helper()
	var out []dataset.Sample
	var sizes []int
	for b, err := range g.Batches() {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b.Samples...)
		sizes = append(sizes, b.Size())
	}
	return out, sizes
}

func TestBatchSizesAndOrder(t *testing.T) {
	samples := words(10)
	g := newGenerator(t, samples, Options{BatchSize: 4, WithSamples: true})

	if g.Len() != 3 {
		t.Errorf("Len = %d, want 3", g.Len())
	}
	got, sizes := collect(t, g)
	if fmt.Sprint(sizes) != "[4 4 2]" {
		t.Errorf("batch sizes = %v, want [4 4 2]", sizes)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if !got[i].Equal(samples[i]) {
			t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}

func TestBatchCount(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for bs := 1; bs <= 5; bs++ {
			g := newGenerator(t, words(n), Options{BatchSize: bs})
			want := (n + bs - 1) / bs
			if g.Len() != want {
				t.Errorf("Len(n=%d, bs=%d) = %d, want %d", n, bs, g.Len(), want)
			}
			count := 0
			p := g.Pass()
			for p.Next() {
				count++
			}
			if p.Err() != nil {
				t.Fatal(p.Err())
			}
			if count != want {
				t.Errorf("pass(n=%d, bs=%d) yielded %d batches, want %d", n, bs, count, want)
			}
		}
	}
}

func TestRestartable(t *testing.T) {
	samples := words(7)
	g := newGenerator(t, samples, Options{BatchSize: 3, WithSamples: true})
	first, _ := collect(t, g)
	second, _ := collect(t, g)
	if len(first) != 7 || len(second) != 7 {
		t.Fatalf("passes yielded %d and %d samples", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("pass order differs at %d", i)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	samples := words(40)
	g := newGenerator(t, samples, Options{BatchSize: 6, WithSamples: true, Shuffle: true, Seed: 7})
	first, _ := collect(t, g)
	second, _ := collect(t, g)

	seen := make(map[string]int)
	for _, s := range first {
		seen[s.Word()]++
	}
	for _, s := range samples {
		if seen[s.Word()] != 1 {
			t.Errorf("%q appears %d times in a shuffled pass", s.Word(), seen[s.Word()])
		}
	}
	same := true
	for i := range first {
		if !first[i].Equal(second[i]) {
			same = false
		}
	}
	if same {
		t.Error("expected a new permutation on the second pass")
	}
}

func TestWithoutSamples(t *testing.T) {
	g := newGenerator(t, words(3), Options{BatchSize: 2})
	p := g.Pass()
	if !p.Next() {
		t.Fatal(p.Err())
	}
	b := p.Batch()
	if b.Samples != nil {
		t.Error("samples should be omitted")
	}
	if len(b.Labels) != 2 || b.Labels[0] == nil {
		t.Error("expected one-hot labels")
	}
}

func TestSparseLabels(t *testing.T) {
	g := newGenerator(t, words(3), Options{BatchSize: 3, Sparse: true})
	p := g.Pass()
	if !p.Next() {
		t.Fatal(p.Err())
	}
	if p.Batch().Labels != nil || len(p.Batch().Sparse) != 3 {
		t.Error("expected sparse labels only")
	}
}

func TestInvalidBatchSize(t *testing.T) {
	proc, _ := processing.NewProcessor(processing.SchemeBoundary, nil, 0, processing.UnknownFail)
	for _, bs := range []int{0, -1} {
		_, err := New(dataset.New(nil), proc, Options{BatchSize: bs})
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("BatchSize=%d: err = %v, want ErrConfiguration", bs, err)
		}
	}
}

func TestEncodingErrorStopsPass(t *testing.T) {
	samples := words(4)
	proc, err := processing.Fit(processing.SchemeBoundary, samples[:2], 0, processing.UnknownFail)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(dataset.New(samples), proc, Options{BatchSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	p := g.Pass()
	batches := 0
	for p.Next() {
		batches++
	}
	if batches != 1 {
		t.Errorf("batches before error = %d, want 1", batches)
	}
	if !errors.Is(p.Err(), processing.ErrEncoding) {
		t.Errorf("err = %v, want ErrEncoding", p.Err())
	}
}
