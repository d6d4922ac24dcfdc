package model

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFunc(t *testing.T) {
	calls := 0
	var m Model = Func(func(inputs []*mat.Dense) ([]*mat.Dense, error) {
		calls++
		return inputs, nil
	})
	in := []*mat.Dense{mat.NewDense(2, 3, nil)}
	out, err := m.Predict(in)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(out) != 1 {
		t.Errorf("calls = %d, outputs = %d", calls, len(out))
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode("no-such-kind", nil)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRegister(t *testing.T) {
	Register("test-identity", func(data []byte) (Model, error) {
		return Func(func(in []*mat.Dense) ([]*mat.Dense, error) { return in, nil }), nil
	})
	if _, err := Decode("test-identity", nil); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, k := range Kinds() {
		if k == "test-identity" {
			found = true
		}
	}
	if !found {
		t.Error("registered kind missing from Kinds()")
	}
}

func TestCheckBatch(t *testing.T) {
	in := []*mat.Dense{mat.NewDense(4, 2, nil)}
	if err := CheckBatch(in, []*mat.Dense{mat.NewDense(4, 3, nil)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckBatch(in, nil); err == nil {
		t.Error("expected error for missing outputs")
	}
	if err := CheckBatch(in, []*mat.Dense{mat.NewDense(3, 3, nil)}); err == nil {
		t.Error("expected error for row mismatch")
	}
}
