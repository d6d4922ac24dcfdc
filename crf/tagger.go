package crf

import (
	"encoding/json"
	"fmt"

	"github.com/happyhackingspace/segmorph/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kind is the artifact kind of a CRF tagger.
const Kind = "crf"

func init() {
	model.Register(Kind, func(data []byte) (model.Model, error) {
		return UnmarshalTagger(data)
	})
}

// Tagger predicts tag distributions for one-hot encoded words with a CRF.
//
// Chars maps input columns back to characters (column 0 is padding) and
// Classes maps output columns to CRF labels (column 0 is the pad class).
type Tagger struct {
	CRF     *Model
	Chars   []string
	Classes []string
	Window  int
}

type taggerJSON struct {
	CRF     json.RawMessage `json:"crf"`
	Chars   []string        `json:"chars"`
	Classes []string        `json:"classes"`
	Window  int             `json:"window"`
}

// NewTagger creates a tagger around a CRF model.
func NewTagger(crf *Model, chars, classes []string, window int) *Tagger {
	return &Tagger{CRF: crf, Chars: chars, Classes: classes, Window: window}
}

// Kind implements model.Marshaler.
func (t *Tagger) Kind() string { return Kind }

// MarshalModel implements model.Marshaler.
func (t *Tagger) MarshalModel() ([]byte, error) {
	if t.CRF == nil {
		return nil, fmt.Errorf("crf: tagger has no model")
	}
	crf, err := MarshalModel(t.CRF)
	if err != nil {
		return nil, fmt.Errorf("crf: %w", err)
	}
	return json.Marshal(taggerJSON{CRF: crf, Chars: t.Chars, Classes: t.Classes, Window: t.Window})
}

// UnmarshalTagger decodes a tagger written by MarshalModel.
func UnmarshalTagger(data []byte) (*Tagger, error) {
	var w taggerJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("crf: %w", err)
	}
	if len(w.CRF) == 0 || string(w.CRF) == "null" {
		return nil, fmt.Errorf("crf: tagger has no model")
	}
	crf, err := UnmarshalModel(w.CRF)
	if err != nil {
		return nil, fmt.Errorf("crf: %w", err)
	}
	return &Tagger{CRF: crf, Chars: w.Chars, Classes: w.Classes, Window: w.Window}, nil
}

// Predict implements model.Model. Padded rows get probability 1 on the pad
// class.
func (t *Tagger) Predict(inputs []*mat.Dense) ([]*mat.Dense, error) {
	if len(t.Chars) == 0 || len(t.Classes) == 0 {
		return nil, fmt.Errorf("crf: tagger has no vocabulary")
	}
	outputs := make([]*mat.Dense, len(inputs))
	for i, in := range inputs {
		rows, cols := in.Dims()
		if cols != len(t.Chars) {
			return nil, fmt.Errorf("crf: input %d has %d features, tagger expects %d", i, cols, len(t.Chars))
		}
		chars := t.characters(in)
		out := mat.NewDense(rows, len(t.Classes), nil)
		if len(chars) > 0 {
			marginals := t.CRF.PredictMarginals(SequenceAttributes(chars, t.Window))
			for pos, m := range marginals {
				for c, cls := range t.Classes {
					out.Set(pos, c, m[cls])
				}
			}
		}
		for pos := len(chars); pos < rows; pos++ {
			out.Set(pos, 0, 1)
		}
		outputs[i] = out
	}
	return outputs, nil
}

// characters decodes one-hot rows up to the first padding row.
func (t *Tagger) characters(in *mat.Dense) []string {
	rows, _ := in.Dims()
	var chars []string
	for r := range rows {
		col := floats.MaxIdx(in.RawRowView(r))
		if col == 0 {
			break
		}
		chars = append(chars, t.Chars[col])
	}
	return chars
}
