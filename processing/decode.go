package processing

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/happyhackingspace/segmorph/crf"
	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/internal/textutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logFloor keeps log probabilities finite for zero-probability classes.
const logFloor = 1e-12

// ToSample decodes a prediction (one row per character of word) into a
// sample. Invalid tag sequences are repaired, see Decode; each repair is
// counted in Repairs.
func (p *Processor) ToSample(word string, prediction *mat.Dense) (dataset.Sample, error) {
	s, repaired, err := p.Decode(word, prediction)
	if err != nil {
		return dataset.Sample{}, err
	}
	if repaired {
		p.repairs.Add(1)
	}
	return s, nil
}

// Decode is ToSample without the repair bookkeeping. It reports whether
// the arg-max tag sequence had to be repaired.
//
// The arg-max class of every row is taken first. If that sequence is not
// valid under the scheme (a continuation on the first character, a pad
// inside the word, a broken B-M-E chain) it is replaced by the most
// probable valid sequence, found by Viterbi over the log probabilities with
// invalid starts, ends and transitions forbidden. Every character of word
// ends up in exactly one segment.
func (p *Processor) Decode(word string, prediction *mat.Dense) (dataset.Sample, bool, error) {
	if err := checkUTF8(word); err != nil {
		return dataset.Sample{}, false, err
	}
	n := utf8.RuneCountInString(word)
	if n == 0 {
		return dataset.Sample{}, false, fmt.Errorf("%w: empty word", ErrEncoding)
	}
	rows, cols := prediction.Dims()
	if rows != n || cols != p.NumClasses() {
		return dataset.Sample{}, false, fmt.Errorf("%w: prediction is %dx%d, %q needs %dx%d",
			ErrShape, rows, cols, word, n, p.NumClasses())
	}

	tags := ArgMax(prediction)
	repaired := false
	if !p.Scheme.Valid(tags) {
		tags = p.repair(prediction)
		repaired = true
	}

	chars := textutil.Chars(word)
	var segments []string
	var seg strings.Builder
	for i, ch := range chars {
		if i > 0 && p.Scheme.startsSegment(tags[i]) {
			segments = append(segments, seg.String())
			seg.Reset()
		}
		seg.WriteString(ch)
	}
	segments = append(segments, seg.String())

	s, err := dataset.NewSample(word, segments...)
	if err != nil {
		return dataset.Sample{}, false, err
	}
	return s, repaired, nil
}

func (p *Processor) repair(prediction *mat.Dense) []int {
	rows, cols := prediction.Dims()
	scores := make([][]float64, rows)
	for r := range rows {
		scores[r] = make([]float64, cols)
		for c, v := range prediction.RawRowView(r) {
			scores[r][c] = math.Log(math.Max(v, 0) + logFloor)
		}
	}
	trans, start, end := p.Scheme.constraints()
	path, _ := crf.ConstrainedViterbi(scores, trans, start, end)
	return path
}

// ArgMax returns the index of the largest entry of every row.
func ArgMax(m mat.Matrix) []int {
	rows, cols := m.Dims()
	out := make([]int, rows)
	row := make([]float64, cols)
	for r := range rows {
		mat.Row(row, r, m)
		out[r] = floats.MaxIdx(row)
	}
	return out
}
