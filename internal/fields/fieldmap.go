package fields

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// FieldMap is an insertion-ordered map from field name to normalized value.
// The zero value is ready to use.
type FieldMap struct {
	keys   []string
	values map[string]string
}

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *FieldMap) Get(key string) (string, bool) {
	if m == nil || m.values == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (m *FieldMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetIfAbsent stores value only if key is not present. It reports whether it wrote.
func (m *FieldMap) SetIfAbsent(key, value string) bool {
	if _, ok := m.Get(key); ok {
		return false
	}
	m.Set(key, value)
	return true
}

// Delete removes key, preserving the order of the remaining keys.
func (m *FieldMap) Delete(key string) {
	if _, ok := m.Get(key); !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *FieldMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns an unordered copy.
func (m *FieldMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// Range calls fn for every entry in order until fn returns false.
func (m *FieldMap) Range(fn func(key, value string) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *FieldMap) Clone() *FieldMap {
	out := NewFieldMap()
	m.Range(func(k, v string) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of strings, keeping document order.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("fieldmap: invalid json")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("fieldmap: expected object, got %s", res.Type)
	}
	fresh := NewFieldMap()
	res.ForEach(func(key, value gjson.Result) bool {
		fresh.Set(key.String(), value.String())
		return true
	})
	*m = *fresh
	return nil
}
