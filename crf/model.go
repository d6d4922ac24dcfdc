package crf

import "encoding/json"

// MarshalModel serializes the model to JSON bytes.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel deserializes a model from JSON bytes.
func UnmarshalModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}
	model.ensureAlphabets()
	return &model, nil
}

func (m *Model) ensureAlphabets() {
	if m.Labels == nil {
		m.Labels = NewAlphabet()
	}
	if m.Attributes == nil {
		m.Attributes = NewAlphabet()
	}
}
