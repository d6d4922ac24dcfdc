package processing

import (
	"fmt"
	"math"
)

// PadClass is the tag class of padded positions in every scheme.
const PadClass = 0

// Scheme is a tag vocabulary: a bijection between per-character tag
// classes and indices, plus the rules that make a tag sequence valid.
type Scheme string

const (
	// SchemeBoundary tags each character as a morpheme start (B) or a
	// continuation (C).
	SchemeBoundary Scheme = "boundary"
	// SchemeBMES tags characters as begin, middle or end of a morpheme, or
	// as a single-character morpheme.
	SchemeBMES Scheme = "bmes"
)

const (
	tagPad = "pad"
	tagB   = "B"
	tagC   = "C"
	tagM   = "M"
	tagE   = "E"
	tagS   = "S"
)

// ParseScheme returns the scheme with the given name.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(name)
	if err := s.validate(); err != nil {
		return "", err
	}
	return s, nil
}

func (s Scheme) validate() error {
	switch s {
	case SchemeBoundary, SchemeBMES:
		return nil
	}
	return fmt.Errorf("unknown tag scheme %q", string(s))
}

// Tags returns the tag names indexed by class.
func (s Scheme) Tags() []string {
	switch s {
	case SchemeBMES:
		return []string{tagPad, tagB, tagM, tagE, tagS}
	default:
		return []string{tagPad, tagB, tagC}
	}
}

// NumClasses returns the number of tag classes, pad included.
func (s Scheme) NumClasses() int { return len(s.Tags()) }

func (s Scheme) class(tag string) int {
	for i, t := range s.Tags() {
		if t == tag {
			return i
		}
	}
	return PadClass
}

// encode returns the tag classes of a word split into segments of the
// given character lengths.
func (s Scheme) encode(segLens []int) []int {
	var tags []int
	for _, n := range segLens {
		for i := range n {
			tags = append(tags, s.segmentTag(i, n))
		}
	}
	return tags
}

func (s Scheme) segmentTag(i, n int) int {
	if s == SchemeBMES {
		switch {
		case n == 1:
			return s.class(tagS)
		case i == 0:
			return s.class(tagB)
		case i == n-1:
			return s.class(tagE)
		default:
			return s.class(tagM)
		}
	}
	if i == 0 {
		return s.class(tagB)
	}
	return s.class(tagC)
}

// startsSegment reports whether a character with this tag opens a morpheme.
func (s Scheme) startsSegment(class int) bool {
	switch s.Tags()[class] {
	case tagB, tagS:
		return true
	}
	return false
}

func (s Scheme) canStart(class int) bool {
	return class != PadClass && s.startsSegment(class)
}

func (s Scheme) canEnd(class int) bool {
	if class == PadClass {
		return false
	}
	if s == SchemeBMES {
		t := s.Tags()[class]
		return t == tagE || t == tagS
	}
	return true
}

func (s Scheme) allowed(from, to int) bool {
	if from == PadClass || to == PadClass {
		return false
	}
	if s != SchemeBMES {
		return true
	}
	tags := s.Tags()
	switch tags[from] {
	case tagB, tagM:
		return tags[to] == tagM || tags[to] == tagE
	default:
		return tags[to] == tagB || tags[to] == tagS
	}
}

// Valid reports whether a tag sequence describes a well-formed segmentation.
func (s Scheme) Valid(tags []int) bool {
	if len(tags) == 0 {
		return true
	}
	if !s.canStart(tags[0]) || !s.canEnd(tags[len(tags)-1]) {
		return false
	}
	for i := 1; i < len(tags); i++ {
		if !s.allowed(tags[i-1], tags[i]) {
			return false
		}
	}
	return true
}

// constraints returns the additive transition, start and end scores that
// restrict Viterbi decoding to valid sequences.
func (s Scheme) constraints() (trans [][]float64, start, end []float64) {
	L := s.NumClasses()
	inf := math.Inf(-1)
	trans = make([][]float64, L)
	start = make([]float64, L)
	end = make([]float64, L)
	for i := range L {
		trans[i] = make([]float64, L)
		for j := range L {
			if !s.allowed(i, j) {
				trans[i][j] = inf
			}
		}
		if !s.canStart(i) {
			start[i] = inf
		}
		if !s.canEnd(i) {
			end[i] = inf
		}
	}
	return trans, start, end
}
