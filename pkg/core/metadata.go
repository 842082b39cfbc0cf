package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the frontmatter mapping of a document.
// Keys keep their insertion order so that rewriting one field never
// reorders the others.
type Metadata struct {
	keys   []string
	values map[string]any
}

// NewMetadata returns an empty mapping.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]any)}
}

// Set assigns key. New keys are appended; existing keys keep their position.
func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the raw value for key.
func (m *Metadata) Get(key string) (any, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// GetString returns the value as text. Sequences are joined with ", ".
func (m *Metadata) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(x)
	}
}

// GetStrings returns a sequence value. A scalar string is split on commas,
// with items trimmed and empty items dropped.
func (m *Metadata) GetStrings(key string) []string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return slices.Clone(x)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return SplitList(x)
	}
	return nil
}

// GetBool reports whether the value is truthy: true, or a non-empty string
// other than "false".
func (m *Metadata) GetBool(key string) bool {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != "" && !strings.EqualFold(x, "false")
	case []string:
		return len(x) > 0
	}
	return true
}

// Delete removes key.
func (m *Metadata) Delete(key string) {
	if m == nil || m.values == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (m *Metadata) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a copy. Sequence values are copied too.
func (m *Metadata) Clone() *Metadata {
	out := NewMetadata()
	m.Range(func(k string, v any) bool {
		if s, ok := v.([]string); ok {
			v = slices.Clone(s)
		}
		out.Set(k, v)
		return true
	})
	return out
}

// Map returns an unordered copy, for callers that need a plain map.
func (m *Metadata) Map() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// MarshalJSON writes an object with keys in order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	i := 0
	m.Range(func(k string, v any) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = json.Marshal(v); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping document order.
// Arrays holding only strings become []string.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("metadata must be an object, got %v", tok)
	}
	*m = Metadata{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Set(key, stringSlice(v))
	}
	_, err = dec.Token()
	return err
}

func stringSlice(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	return out
}

// MarshalYAML renders a mapping node with keys in order.
func (m *Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Range(func(k string, v any) bool {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valueNode := &yaml.Node{}
		if err = valueNode.Encode(v); err != nil {
			return false
		}
		node.Content = append(node.Content, keyNode, valueNode)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node, keeping document order.
// Scalars become string or bool; sequences of scalars become []string.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metadata must be a mapping, got node kind %d", node.Kind)
	}
	*m = Metadata{values: make(map[string]any)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			items := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				items = append(items, item.Value)
			}
			m.Set(key, items)
		case yaml.ScalarNode:
			if val.Tag == "!!bool" {
				var b bool
				if err := val.Decode(&b); err != nil {
					return err
				}
				m.Set(key, b)
			} else if val.Tag == "!!null" {
				m.Set(key, nil)
			} else {
				m.Set(key, val.Value)
			}
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return err
			}
			m.Set(key, v)
		}
	}
	return nil
}

// SplitList splits a comma-separated list, trimming items and dropping empty ones.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
