package confignode

import (
	"gopkg.in/yaml.v3"
)

// Decode parses YAML (or JSON, which is a subset) into a structured value
// with string-keyed maps throughout.
func Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return Clone(v), nil
}

func Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
