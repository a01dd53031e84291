package hwaccel

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigStore is an ordered key -> string mapping consulted by the policy
// resolver. It is read-only during negotiation. A nil *ConfigStore is valid
// and behaves as an empty store.
type ConfigStore struct {
	keys   []string
	values map[string]string
}

// NewConfigStore builds a store from alternating key/value pairs.
func NewConfigStore(pairs ...string) *ConfigStore {
	if len(pairs)%2 != 0 {
		panic("hwaccel: NewConfigStore requires key/value pairs")
	}
	s := &ConfigStore{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		s.Set(pairs[i], pairs[i+1])
	}
	return s
}

// Set stores a value, preserving first-insertion order for Keys.
func (s *ConfigStore) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value for key and whether it is present.
func (s *ConfigStore) Get(key string) (string, bool) {
	if s == nil || s.values == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (s *ConfigStore) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of entries.
func (s *ConfigStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// ConfigFromYAML parses a flat YAML mapping into a ConfigStore, preserving
// the document order of the keys. Scalar values are taken verbatim.
func ConfigFromYAML(data []byte) (*ConfigStore, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	s := NewConfigStore()
	if len(doc.Content) == 0 {
		return s, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse config: expected a mapping at the top level, got %v", root.Kind)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse config: key %q: expected a scalar value", k.Value)
		}
		s.Set(k.Value, v.Value)
	}
	return s, nil
}
