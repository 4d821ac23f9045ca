package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML stores values as YAML documents. Decoded mappings are
// map[string]any and integers stay int.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Encode(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return string(b), nil
}

func (YAML) Decode(stored any) (any, error) {
	b, ok := storedBytes(stored)
	if !ok {
		return stored, nil
	}
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	return v, nil
}
