// Package model defines the tagging-model capability the pipeline drives.
//
// A Model receives one encoded input matrix per word (rows are character
// positions, columns are input features) and returns one probability matrix
// per word (rows are character positions, columns are tag classes). Models
// are opaque: the pipeline never looks at their parameters.
package model

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Model predicts per-character tag class distributions for a batch.
type Model interface {
	Predict(inputs []*mat.Dense) ([]*mat.Dense, error)
}

// Func adapts an ordinary function to the Model interface.
type Func func(inputs []*mat.Dense) ([]*mat.Dense, error)

// Predict calls f(inputs).
func (f Func) Predict(inputs []*mat.Dense) ([]*mat.Dense, error) { return f(inputs) }

// Marshaler is implemented by models that can be stored in an artifact.
type Marshaler interface {
	Model
	Kind() string
	MarshalModel() ([]byte, error)
}

// Decoder rebuilds a model from the bytes written by MarshalModel.
type Decoder func(data []byte) (Model, error)

// ErrUnknownKind is returned by Decode for unregistered model kinds.
var ErrUnknownKind = errors.New("unknown model kind")

var (
	mu       sync.RWMutex
	decoders = make(map[string]Decoder)
)

// Register makes a model kind available to Decode. It panics if the kind is
// registered twice.
func Register(kind string, dec Decoder) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := decoders[kind]; dup {
		panic("model: Register called twice for kind " + kind)
	}
	decoders[kind] = dec
}

// Decode rebuilds a model of the given kind.
func Decode(kind string, data []byte) (Model, error) {
	mu.RLock()
	dec, ok := decoders[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return dec(data)
}

// Kinds returns the registered model kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// CheckBatch verifies that a model returned one output per input with the
// same number of rows.
func CheckBatch(inputs, outputs []*mat.Dense) error {
	if len(inputs) != len(outputs) {
		return fmt.Errorf("model returned %d outputs for %d inputs", len(outputs), len(inputs))
	}
	for i := range inputs {
		if outputs[i] == nil {
			return fmt.Errorf("model output %d is nil", i)
		}
		ir, _ := inputs[i].Dims()
		or, _ := outputs[i].Dims()
		if ir != or {
			return fmt.Errorf("model output %d has %d rows, input has %d", i, or, ir)
		}
	}
	return nil
}
