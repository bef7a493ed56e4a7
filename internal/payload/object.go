package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// Entry is one key/value pair of an Object.
type Entry struct {
	Key   string
	Value Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set assigns key. Re-assigning an existing key keeps its original position.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// SetString is shorthand for Set(key, String(s)).
func (o *Object) SetString(key, s string) {
	o.Set(key, String(s))
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Entries returns the pairs in insertion order.
func (o *Object) Entries() []Entry {
	if o == nil {
		return nil
	}
	out := make([]Entry, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, Entry{Key: k, Value: o.values[k]})
	}
	return out
}

// Equal reports deep equality including key order.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for i, k := range o.Keys() {
		if other.keys[i] != k {
			return false
		}
		if !o.values[k].Equal(other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	o.encode(&buf)
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. The document must be an object.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	obj, ok := v.Object()
	if !ok {
		return fmt.Errorf("payload: expected a JSON object")
	}
	*o = *obj
	return nil
}

// CompactJSON returns the compact encoding without HTML escaping.
func (o *Object) CompactJSON() string {
	var buf bytes.Buffer
	o.encode(&buf)
	return buf.String()
}

// IndentJSON returns the encoding indented with two spaces.
func (o *Object) IndentJSON() string {
	var out bytes.Buffer
	compact := o.CompactJSON()
	// Indent only fails on invalid input; encode always emits valid JSON.
	if err := json.Indent(&out, []byte(compact), "", "  "); err != nil {
		return compact
	}
	return out.String()
}

func (o *Object) encode(buf *bytes.Buffer) {
	buf.WriteByte('{')
	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			o.values[k].encode(buf)
		}
	}
	buf.WriteByte('}')
}
