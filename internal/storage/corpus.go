// Package storage reads segmentation corpora.
//
// A corpus file holds one word per line:
//
//	running	run n ing
//	cats	cat:ROOT s:PL
//
// The word and its segments are separated by a tab, segments by spaces. A
// ":TYPE" suffix on a segment is ignored, and only the first of several
// comma separated analyses is kept. A line without a tab is an unlabeled
// word. Blank lines and lines starting with '#' are skipped.
package storage

import (
	"bufio"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/internal/textutil"
)

// ErrSyntax is returned for corpus lines that cannot be parsed.
var ErrSyntax = errors.New("corpus syntax error")

// LoadOptions controls corpus parsing.
type LoadOptions struct {
	// DropDuplicates keeps only the first occurrence of a sample.
	DropDuplicates bool
	// Lowercase lowercases words and segments.
	Lowercase bool
	// Strict fails on the first malformed line instead of skipping it.
	Strict bool
	// RequireLabels rejects lines without segments.
	RequireLabels bool
}

// DefaultLoadOptions returns the default options for loading a corpus.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DropDuplicates: true,
		RequireLabels:  true,
	}
}

// ParseLine parses one corpus line. ok is false for blank and comment lines.
func ParseLine(line string, lowercase bool) (s dataset.Sample, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
		return dataset.Sample{}, false, nil
	}

	norm := textutil.NFC
	if lowercase {
		norm = func(text string) string { return textutil.NFC(strings.ToLower(text)) }
	}

	word, analysis, labeled := strings.Cut(line, "\t")
	word = norm(strings.TrimSpace(word))
	if word == "" || strings.ContainsAny(word, " \t") {
		return dataset.Sample{}, false, fmt.Errorf("%w: bad word %q", ErrSyntax, word)
	}
	if !labeled {
		return dataset.Word(word), true, nil
	}

	// Alternative analyses are comma separated; the first one wins.
	analysis, _, _ = strings.Cut(analysis, ",")
	fields := strings.Fields(analysis)
	if len(fields) == 0 {
		return dataset.Word(word), true, nil
	}
	segments := make([]string, len(fields))
	for i, f := range fields {
		seg, _, _ := strings.Cut(f, ":")
		segments[i] = norm(seg)
	}
	s, err = dataset.NewSample(word, segments...)
	if err != nil {
		return dataset.Sample{}, false, err
	}
	return s, true, nil
}

// ReadCorpus parses every line of r. Malformed lines are logged and
// skipped unless opts.Strict is set.
func ReadCorpus(r io.Reader, name string, opts LoadOptions) ([]dataset.Sample, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var samples []dataset.Sample
	lineNo := 0
	skipped := 0
	for sc.Scan() {
		lineNo++
		s, ok, err := ParseLine(sc.Text(), opts.Lowercase)
		if err == nil && ok && opts.RequireLabels && !s.Labeled() {
			err = fmt.Errorf("%w: %q has no segments", ErrSyntax, s.Word())
		}
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			slog.Warn("Skipping corpus line", "file", name, "line", lineNo, "error", err)
			skipped++
			continue
		}
		if !ok {
			continue
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if opts.DropDuplicates {
		samples = Dedupe(samples)
	}
	slog.Debug("Corpus read", "file", name, "samples", len(samples), "skipped", skipped)
	return samples, nil
}

// Dedupe drops repeated samples, keeping the first occurrence.
func Dedupe(samples []dataset.Sample) []dataset.Sample {
	seen := make(map[[md5.Size]byte]bool, len(samples))
	var out []dataset.Sample
	for _, s := range samples {
		// Deduplication by sample content hash
		hash := md5.Sum([]byte(s.Word() + "\t" + strings.Join(s.Segments(), " ")))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, s)
	}
	return out
}
