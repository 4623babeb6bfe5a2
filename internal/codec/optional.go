package codec

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// OptFloat is a number that may be absent. Numeric strings are accepted;
// null or any other JSON type decodes as absent.
type OptFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	*o = OptFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		o.Value, o.Valid = f, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil
		}
		o.Value, o.Valid = f, true
	}
	return nil
}

// Ptr returns the value as a pointer, nil when absent
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// OptString is a string that may be absent. Only JSON strings are accepted.
type OptString struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptString) UnmarshalJSON(data []byte) error {
	*o = OptString{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	o.Value, o.Valid = s, true
	return nil
}

// Or returns the value, or fallback when absent
func (o OptString) Or(fallback string) string {
	if !o.Valid {
		return fallback
	}
	return o.Value
}

// RawValue keeps an arbitrary JSON value decoded with json.Number preserved.
// nil means absent or null.
type RawValue struct {
	Value any
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RawValue) UnmarshalJSON(data []byte) error {
	r.Value = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	r.Value = v
	return nil
}

// ObjectMap is a JSON object of V values keyed by string. A value that is not
// an object decodes as an empty map; members that fail to decode as V are dropped.
type ObjectMap[V any] map[string]V

// UnmarshalJSON implements json.Unmarshaler
func (m *ObjectMap[V]) UnmarshalJSON(data []byte) error {
	*m = nil
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}
	out := make(ObjectMap[V], len(raw))
	for k, r := range raw {
		var v V
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out[k] = v
	}
	*m = out
	return nil
}

// Keys returns the member names in sorted order
func (m ObjectMap[V]) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ObjectList is a JSON array of V values. A value that is not an array decodes
// as an empty list; elements that fail to decode as V are dropped.
type ObjectList[V any] []V

// UnmarshalJSON implements json.Unmarshaler
func (l *ObjectList[V]) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, r := range raw {
		var v V
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		*l = append(*l, v)
	}
	return nil
}
