package block

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Attrs is an ordered string-keyed attribute mapping. Insertion order is
// preserved so that documents behave deterministically regardless of how
// the attribute tree was produced. Nested mappings decode into *Attrs.
//
// Attrs is not safe for concurrent mutation; the engine treats a
// document's attribute trees as read-only during rendering.
type Attrs struct {
	keys   []string
	values map[string]any
}

// NewAttrs creates an empty attribute mapping.
func NewAttrs() *Attrs {
	return &Attrs{values: make(map[string]any)}
}

// AttrsFrom builds an Attrs from alternating key/value pairs, preserving
// the given order. It panics on an odd number of arguments or a non-string
// key; it is intended for tests and fixtures.
func AttrsFrom(pairs ...any) *Attrs {
	if len(pairs)%2 != 0 {
		panic("block.AttrsFrom: odd number of arguments")
	}
	a := NewAttrs()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("block.AttrsFrom: key %v is not a string", pairs[i]))
		}
		a.Set(key, pairs[i+1])
	}
	return a
}

// Set stores a value under key. Re-setting an existing key overwrites the
// value but keeps the key's original position.
func (a *Attrs) Set(key string, value any) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value for key and whether it exists.
func (a *Attrs) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// String returns the value for key as a string. Missing keys and
// non-string values return "".
func (a *Attrs) String(key string) string {
	if v, ok := a.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int returns the value for key as an int with a fallback default.
// YAML decodes integers as int; float values are truncated.
func (a *Attrs) Int(key string, def int) int {
	v, ok := a.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the value for key as a float64 with a fallback default.
func (a *Attrs) Float(key string, def float64) float64 {
	v, ok := a.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Child returns the nested Attrs under key, or nil if the key is absent or
// not a mapping.
func (a *Attrs) Child(key string) *Attrs {
	if v, ok := a.Get(key); ok {
		if c, ok := v.(*Attrs); ok {
			return c
		}
	}
	return nil
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the attribute keys in insertion order. The returned slice
// must not be modified.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	return a.keys
}

// Range calls fn for every key/value pair in insertion order until fn
// returns false.
func (a *Attrs) Range(fn func(key string, value any) bool) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		if !fn(k, a.values[k]) {
			return
		}
	}
}

// UnmarshalYAML decodes a YAML mapping into Attrs, preserving key order.
// Nested mappings become *Attrs; sequences become []any.
func (a *Attrs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("attrs: expected mapping, got %s", yamlKindName(node.Kind))
	}
	if a.values == nil {
		a.values = make(map[string]any)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("attrs: decode key: %w", err)
		}
		val, err := decodeYAMLValue(valNode)
		if err != nil {
			return fmt.Errorf("attrs: decode %q: %w", key, err)
		}
		a.Set(key, val)
	}
	return nil
}

// MarshalYAML encodes Attrs back to a YAML mapping in insertion order.
func (a *Attrs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range a.keys {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		if err := valNode.Encode(a.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &keyNode, &valNode)
	}
	return node, nil
}

// MarshalJSON encodes Attrs as a JSON object in insertion order, which
// gives stable bytes for fingerprinting resolved specs.
func (a *Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeYAMLValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		child := NewAttrs()
		if err := child.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return child, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeYAMLValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
