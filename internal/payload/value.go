// Package payload models JSON documents whose object keys keep their
// insertion order. Generated samples and parsed QR payloads are both
// represented as a Value so that downstream traversals can switch on Kind
// instead of type-asserting on decoded interfaces.
package payload

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindList
)

// Value is a tagged union of a scalar, an ordered object or a list.
//
// Scalars keep their display text. A scalar that came from a JSON number,
// boolean or null is marked literal so it re-encodes without quotes.
type Value struct {
	kind    Kind
	text    string
	literal bool
	object  *Object
	items   []Value
}

// String returns a string scalar.
func String(s string) Value {
	return Value{kind: KindScalar, text: s}
}

// Literal returns a scalar for a raw JSON number, boolean or null token.
func Literal(raw string) Value {
	return Value{kind: KindScalar, text: raw, literal: true}
}

// Nested wraps an object.
func Nested(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, object: o}
}

// List returns a list value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// Text returns the stringified scalar. For objects and lists it returns the
// compact JSON encoding.
func (v Value) Text() string {
	if v.kind == KindScalar {
		return v.text
	}
	return v.CompactJSON()
}

// Object returns the wrapped object when v is an object.
func (v Value) Object() (*Object, bool) {
	return v.object, v.kind == KindObject
}

// Items returns the list elements when v is a list.
func (v Value) Items() ([]Value, bool) {
	return v.items, v.kind == KindList
}

// Equal reports deep equality, honouring key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindObject:
		return v.object.Equal(o.object)
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	default:
		return v.text == o.text && v.literal == o.literal
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// CompactJSON returns the compact encoding without HTML escaping.
func (v Value) CompactJSON() string {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.String()
}

// Len returns the length in characters of Text.
func (v Value) Len() int {
	return utf8.RuneCountInString(v.Text())
}

func (v Value) encode(buf *bytes.Buffer) {
	switch v.kind {
	case KindObject:
		v.object.encode(buf)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.encode(buf)
		}
		buf.WriteByte(']')
	default:
		if v.literal {
			buf.WriteString(v.text)
			return
		}
		encodeString(buf, v.text)
	}
}

func encodeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
}
