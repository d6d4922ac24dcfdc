// Package dataset holds the value types the segmentation pipeline runs on:
// a Sample pairs a word with its morpheme segmentation and a Dataset is an
// ordered, read-only collection of samples.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidSample is returned when segments do not reproduce the word.
var ErrInvalidSample = errors.New("invalid sample")

// Sample is a word together with its (possibly empty) segmentation.
// A Sample is immutable; accessors return copies.
type Sample struct {
	word     string
	segments []string
}

// NewSample creates a labeled sample. The segments must be non-empty strings
// whose concatenation is exactly word. With no segments the sample is an
// unlabeled input, the same as Word(word).
func NewSample(word string, segments ...string) (Sample, error) {
	if len(segments) == 0 {
		return Word(word), nil
	}
	var sb strings.Builder
	for i, seg := range segments {
		if seg == "" {
			return Sample{}, fmt.Errorf("%w: empty segment %d in %q", ErrInvalidSample, i, word)
		}
		sb.WriteString(seg)
	}
	if sb.String() != word {
		return Sample{}, fmt.Errorf("%w: segments %q do not spell %q", ErrInvalidSample, segments, word)
	}
	return Sample{word: word, segments: slices.Clone(segments)}, nil
}

// MustSample is like NewSample but panics on invalid input.
func MustSample(word string, segments ...string) Sample {
	s, err := NewSample(word, segments...)
	if err != nil {
		panic(err)
	}
	return s
}

// Word creates an unlabeled sample.
func Word(word string) Sample {
	return Sample{word: word}
}

// Word returns the raw word.
func (s Sample) Word() string { return s.word }

// Segments returns a copy of the morpheme segments.
func (s Sample) Segments() []string { return slices.Clone(s.segments) }

// NumSegments returns the number of segments.
func (s Sample) NumSegments() int { return len(s.segments) }

// Labeled reports whether the sample carries a segmentation.
func (s Sample) Labeled() bool { return len(s.segments) > 0 }

// Equal reports whether both word and segments match.
func (s Sample) Equal(o Sample) bool {
	return s.word == o.word && slices.Equal(s.segments, o.segments)
}

// String renders the sample as "word: seg1/seg2/...".
func (s Sample) String() string {
	if !s.Labeled() {
		return s.word
	}
	return s.word + ": " + strings.Join(s.segments, "/")
}
