// Package processing converts samples to and from the numeric form a
// tagging model consumes and produces.
//
// Inputs are one-hot character matrices (rows are positions, columns are
// vocabulary entries) and labels are one-hot tag matrices (rows are
// positions, columns are tag classes). Rows past the end of a word carry
// the pad character and the pad tag.
package processing

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"unicode/utf8"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/internal/textutil"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEncoding is returned for words that cannot be encoded: unknown
	// characters under UnknownFail, empty words, or words longer than MaxLen.
	ErrEncoding = errors.New("encoding error")
	// ErrShape is returned when a prediction does not match its word.
	ErrShape = errors.New("shape mismatch")
)

// Reserved vocabulary entries.
const (
	PadChar = "<pad>"
	UnkChar = "<unk>"

	padIndex = 0
	unkIndex = 1
)

// UnknownPolicy decides how characters outside the vocabulary are encoded.
type UnknownPolicy string

const (
	// UnknownFail rejects words with unknown characters with ErrEncoding.
	UnknownFail UnknownPolicy = "fail"
	// UnknownMap encodes unknown characters as the UnkChar column.
	UnknownMap UnknownPolicy = "map"
)

// ParseUnknownPolicy returns the policy with the given name; "" is UnknownFail.
func ParseUnknownPolicy(name string) (UnknownPolicy, error) {
	switch UnknownPolicy(name) {
	case "", UnknownFail:
		return UnknownFail, nil
	case UnknownMap:
		return UnknownMap, nil
	}
	return "", fmt.Errorf("unknown character policy %q", name)
}

// Processor encodes samples to tensors and decodes predictions to samples.
// The exported fields are its serialized state; call Init after decoding
// one from an artifact.
type Processor struct {
	Scheme  Scheme        `json:"scheme"`
	Chars   []string      `json:"chars"`
	MaxLen  int           `json:"max_len"`
	Unknown UnknownPolicy `json:"unknown"`

	index   map[string]int
	repairs atomic.Int64
}

// NewProcessor creates a processor over the given character alphabet.
// MaxLen 0 pads each batch to its longest word.
func NewProcessor(scheme Scheme, alphabet []string, maxLen int, unknown UnknownPolicy) (*Processor, error) {
	chars := []string{PadChar, UnkChar}
	seen := map[string]bool{PadChar: true, UnkChar: true}
	for _, ch := range alphabet {
		if !seen[ch] {
			seen[ch] = true
			chars = append(chars, ch)
		}
	}
	p := &Processor{Scheme: scheme, Chars: chars, MaxLen: maxLen, Unknown: unknown}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// Fit creates a processor whose alphabet is every character in samples,
// in sorted order.
func Fit(scheme Scheme, samples []dataset.Sample, maxLen int, unknown UnknownPolicy) (*Processor, error) {
	set := make(map[string]bool)
	for _, s := range samples {
		if err := checkUTF8(s.Word()); err != nil {
			return nil, err
		}
		for _, ch := range textutil.Chars(s.Word()) {
			set[ch] = true
		}
	}
	alphabet := make([]string, 0, len(set))
	for ch := range set {
		alphabet = append(alphabet, ch)
	}
	sort.Strings(alphabet)
	return NewProcessor(scheme, alphabet, maxLen, unknown)
}

// Init validates the processor and rebuilds its lookup tables.
func (p *Processor) Init() error {
	if err := p.Scheme.validate(); err != nil {
		return err
	}
	if _, err := ParseUnknownPolicy(string(p.Unknown)); err != nil {
		return err
	}
	if p.Unknown == "" {
		p.Unknown = UnknownFail
	}
	if len(p.Chars) < 2 || p.Chars[padIndex] != PadChar || p.Chars[unkIndex] != UnkChar {
		return fmt.Errorf("processor alphabet must start with %s and %s", PadChar, UnkChar)
	}
	if p.MaxLen < 0 {
		return fmt.Errorf("processor max length must be >= 0, got %d", p.MaxLen)
	}
	p.index = make(map[string]int, len(p.Chars))
	for i, ch := range p.Chars {
		p.index[ch] = i
	}
	return nil
}

// InputDim returns the width of an input row.
func (p *Processor) InputDim() int { return len(p.Chars) }

// NumClasses returns the width of a label or prediction row.
func (p *Processor) NumClasses() int { return p.Scheme.NumClasses() }

// Repairs returns how many predictions ToSample had to repair.
func (p *Processor) Repairs() int64 { return p.repairs.Load() }

// Encoded is an encoded batch. Inputs always has one matrix per sample.
// With one-hot conversion Labels holds one matrix per sample; otherwise
// Sparse holds the class indices. Unlabeled samples have nil labels.
type Encoded struct {
	Inputs []*mat.Dense
	Labels []*mat.Dense
	Sparse [][]int
	Width  int
}

// Parse encodes a batch of samples.
func (p *Processor) Parse(batch []dataset.Sample, oneHot bool) (*Encoded, error) {
	width := p.MaxLen
	if width == 0 {
		for _, s := range batch {
			width = max(width, utf8.RuneCountInString(s.Word()))
		}
	}
	enc := &Encoded{
		Inputs: make([]*mat.Dense, len(batch)),
		Width:  width,
	}
	if oneHot {
		enc.Labels = make([]*mat.Dense, len(batch))
	} else {
		enc.Sparse = make([][]int, len(batch))
	}
	for i, s := range batch {
		in, err := p.encodeWord(s.Word(), width)
		if err != nil {
			return nil, err
		}
		enc.Inputs[i] = in
		if !s.Labeled() {
			continue
		}
		tags, err := p.Tags(s)
		if err != nil {
			return nil, err
		}
		padded := make([]int, width)
		copy(padded, tags)
		if oneHot {
			enc.Labels[i] = p.oneHot(padded)
		} else {
			enc.Sparse[i] = padded
		}
	}
	return enc, nil
}

// ParseOne encodes a single sample, returning its input matrix and its
// one-hot label matrix (nil for unlabeled samples).
func (p *Processor) ParseOne(s dataset.Sample) (*mat.Dense, *mat.Dense, error) {
	enc, err := p.Parse([]dataset.Sample{s}, true)
	if err != nil {
		return nil, nil, err
	}
	return enc.Inputs[0], enc.Labels[0], nil
}

// Tags returns the tag classes of a labeled sample, one per character.
func (p *Processor) Tags(s dataset.Sample) ([]int, error) {
	if !s.Labeled() {
		return nil, fmt.Errorf("%w: %q has no segments", ErrEncoding, s.Word())
	}
	segs := s.Segments()
	lens := make([]int, len(segs))
	for i, seg := range segs {
		lens[i] = utf8.RuneCountInString(seg)
	}
	return p.Scheme.encode(lens), nil
}

// OneHot returns the ground-truth probability matrix of a labeled sample,
// one row per character.
func (p *Processor) OneHot(s dataset.Sample) (*mat.Dense, error) {
	tags, err := p.Tags(s)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: empty word", ErrEncoding)
	}
	return p.oneHot(tags), nil
}

func (p *Processor) oneHot(tags []int) *mat.Dense {
	m := mat.NewDense(len(tags), p.NumClasses(), nil)
	for i, c := range tags {
		m.Set(i, c, 1)
	}
	return m
}

// checkUTF8 rejects words that would not survive a rune round trip.
func checkUTF8(word string) error {
	if !utf8.ValidString(word) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrEncoding, word)
	}
	return nil
}

func (p *Processor) encodeWord(word string, width int) (*mat.Dense, error) {
	if err := checkUTF8(word); err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(word)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: empty word", ErrEncoding)
	case n > width:
		return nil, fmt.Errorf("%w: %q has %d characters, max length is %d", ErrEncoding, word, n, width)
	}
	m := mat.NewDense(width, p.InputDim(), nil)
	i := 0
	for _, r := range word {
		col, ok := p.index[string(r)]
		if !ok {
			if p.Unknown != UnknownMap {
				return nil, fmt.Errorf("%w: unknown character %q in %q", ErrEncoding, r, word)
			}
			col = unkIndex
		}
		m.Set(i, col, 1)
		i++
	}
	for ; i < width; i++ {
		m.Set(i, padIndex, 1)
	}
	return m, nil
}

// Trim drops the padded rows of a model output so that it has exactly one
// row per character of word.
func (p *Processor) Trim(prediction *mat.Dense, word string) (*mat.Dense, error) {
	n := utf8.RuneCountInString(word)
	rows, cols := prediction.Dims()
	if n == 0 || rows < n {
		return nil, fmt.Errorf("%w: prediction has %d rows for %q", ErrShape, rows, word)
	}
	if rows == n {
		return prediction, nil
	}
	return prediction.Slice(0, n, 0, cols).(*mat.Dense), nil
}

// Alphabet returns the vocabulary without the reserved entries.
func (p *Processor) Alphabet() []string {
	return slices.Clone(p.Chars[unkIndex+1:])
}
