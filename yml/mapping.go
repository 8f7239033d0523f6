package yml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Mapping is an ordered YAML mapping. Keys keep the order in which they were
// first set, which for loaded documents is document order.
//
// Keys must be hashable: strings, numbers, booleans, nil and other comparable
// scalars. Mappings and sequences are never valid keys.
type Mapping struct {
	pairs *orderedmap.OrderedMap[any, any]
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{pairs: orderedmap.New[any, any]()}
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return m.pairs.Len()
}

// Get returns the value stored under key.
func (m *Mapping) Get(key any) (any, bool) {
	if m == nil || !hashable(key) {
		return nil, false
	}
	return m.pairs.Get(key)
}

// Set stores value under key. An existing key keeps its position.
// Set panics if key is not hashable.
func (m *Mapping) Set(key, value any) {
	if !hashable(key) {
		panic(fmt.Sprintf("yml: unhashable mapping key of type %s", typeName(key)))
	}
	m.pairs.Set(key, value)
}

// Keys returns the keys in order.
func (m *Mapping) Keys() []any {
	keys := make([]any, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the key/value pairs in order.
func (m *Mapping) All() iter.Seq2[any, any] {
	if m == nil {
		return func(func(any, any) bool) {}
	}
	return m.pairs.FromOldest()
}

// Equal reports whether m and other hold equal keys in the same order with
// deeply equal values.
func (m *Mapping) Equal(other *Mapping) bool {
	if m == nil || other == nil {
		return m.Len() == 0 && other.Len() == 0
	}
	if m.Len() != other.Len() {
		return false
	}
	a, b := m.pairs.Oldest(), other.pairs.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || !valuesEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case *Mapping:
		bv, ok := b.(*Mapping)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// MarshalJSON encodes the mapping as a JSON object in key order.
// Non-string keys are written in their fmt.Sprint form. It fails when two
// distinct keys share that form, such as 1 and "1".
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	seen := make(map[string]any, m.Len())
	for k, v := range m.All() {
		ks := keyString(k)
		if prev, ok := seen[ks]; ok {
			return nil, fmt.Errorf("keys %#v and %#v both encode as JSON key %q", prev, k, ks)
		}
		if len(seen) > 0 {
			buf.WriteByte(',')
		}
		seen[ks] = k
		kb, err := json.Marshal(ks)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding value of key %q: %w", keyString(k), err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the mapping as a YAML mapping node in key order.
func (m *Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for k, v := range m.All() {
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding value of key %q: %w", keyString(k), err)
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	if k == nil {
		return "null"
	}
	return fmt.Sprint(k)
}

// hashable reports whether v can be used as a mapping key.
func hashable(v any) bool {
	switch v.(type) {
	case nil:
		return true
	case *Mapping, []any:
		return false
	}
	return reflect.TypeOf(v).Comparable()
}

// typeName names the kind of a constructed value for error messages.
func typeName(v any) string {
	switch v.(type) {
	case *Mapping:
		return "mapping"
	case []any:
		return "sequence"
	case nil:
		return "null"
	}
	return reflect.TypeOf(v).String()
}
