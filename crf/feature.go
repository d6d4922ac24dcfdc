package crf

import (
	"fmt"
	"strings"

	"github.com/happyhackingspace/segmorph/internal/textutil"
)

// FeaturesToAttributes converts a feature dict (with mixed value types)
// to CRF attribute strings with float64 values.
//
// Conversion rules:
//   - string value: "key=value" → 1.0
//   - []string value: "key:item" → 1.0 for each item
//   - bool value: "key" → 1.0 if true
//   - int/float value: "key" → float64(value)
func FeaturesToAttributes(features map[string]any) map[string]float64 {
	attrs := make(map[string]float64)
	for key, val := range features {
		switch v := val.(type) {
		case string:
			attrs[fmt.Sprintf("%s=%s", key, v)] = 1.0
		case []string:
			for _, item := range v {
				attrs[fmt.Sprintf("%s:%s", key, item)] = 1.0
			}
		case bool:
			if v {
				attrs[key] = 1.0
			}
		case int:
			attrs[key] = float64(v)
		case float64:
			attrs[key] = v
		default:
			attrs[key] = 1.0
		}
	}
	return attrs
}

const (
	wordStart = "^"
	wordEnd   = "$"
)

// CharFeatures returns the feature dict of the character at position i.
// Characters within window positions on each side contribute identity
// features; the window text contributes its character bigrams and trigrams.
func CharFeatures(chars []string, i, window int) map[string]any {
	feats := map[string]any{
		"bias": 1,
		"c[0]": chars[i],
	}
	if i == 0 {
		feats["is-first"] = true
	}
	if i == len(chars)-1 {
		feats["is-last"] = true
	}
	var ctx strings.Builder
	for k := -window; k <= window; k++ {
		j := i + k
		ch := chars[min(max(j, 0), len(chars)-1)]
		switch {
		case j < 0:
			ch = wordStart
		case j >= len(chars):
			ch = wordEnd
		}
		if k != 0 {
			feats[fmt.Sprintf("c[%+d]", k)] = ch
		}
		ctx.WriteString(ch)
	}
	feats["ngram"] = textutil.Ngrams(ctx.String(), 2, 3)
	return feats
}

// SequenceAttributes returns CRF attributes for every character of a word.
func SequenceAttributes(chars []string, window int) []map[string]float64 {
	attrs := make([]map[string]float64, len(chars))
	for i := range chars {
		attrs[i] = FeaturesToAttributes(CharFeatures(chars, i, window))
	}
	return attrs
}
