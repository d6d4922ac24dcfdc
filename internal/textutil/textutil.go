// Package textutil provides text processing utilities for word segmentation.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Chars splits a string into its characters (runes) as strings.
func Chars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}

// Ngrams returns min_n to max_n character-level n-grams of the given string.
func Ngrams(s string, minN, maxN int) []string {
	runes := []rune(s)
	textLen := len(runes)
	var res []string
	for n := minN; n <= maxN && n <= textLen; n++ {
		for i := 0; i <= textLen-n; i++ {
			res = append(res, string(runes[i:i+n]))
		}
	}
	return res
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// NFC returns the canonical composition of text, so that a character typed
// as base+combining mark and its precomposed form encode the same way.
func NFC(text string) string {
	return norm.NFC.String(text)
}

// Normalize lowercases text, composes it to NFC and normalizes whitespace.
func Normalize(text string) string {
	return NFC(NormalizeWhitespaces(strings.ToLower(strings.TrimSpace(text))))
}
