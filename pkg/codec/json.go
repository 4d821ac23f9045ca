package codec

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// JSON stores values as JSON text. Decoded objects are map[string]any,
// arrays are []any and numbers are float64.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return string(b), nil
}

func (JSON) Decode(stored any) (any, error) {
	b, ok := storedBytes(stored)
	if !ok {
		return stored, nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return v, nil
}
